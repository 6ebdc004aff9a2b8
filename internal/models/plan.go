package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BillingPeriod is the billing cycle of a subscription plan.
type BillingPeriod string

const (
	BillingMonthly   BillingPeriod = "monthly"
	BillingQuarterly BillingPeriod = "quarterly"
	BillingYearly    BillingPeriod = "yearly"
)

// SubscriptionPlan is a catalog entry maintained by administrators. Limits
// of zero or below mean unlimited. Plans referenced by payments are never
// deleted.
type SubscriptionPlan struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	Name          string        `gorm:"size:255;not null" json:"name"`
	Description   string        `gorm:"type:text" json:"description"`
	Price         float64       `gorm:"not null" json:"price"`
	BillingPeriod BillingPeriod `gorm:"size:20;not null;default:'monthly'" json:"billing_period"`

	AIRequestsLimit   int `gorm:"not null;default:0" json:"ai_requests_limit"`
	CustomAgentsLimit int `gorm:"not null;default:0" json:"custom_agents_limit"`

	CanUseChatGPT  bool `gorm:"not null" json:"can_use_chatgpt"`
	CanUseGemini   bool `gorm:"not null" json:"can_use_gemini"`
	CanUseDeepSeek bool `gorm:"not null" json:"can_use_deepseek"`

	IsActive bool `gorm:"not null" json:"is_active"`

	Payments []Payment `gorm:"foreignKey:SubscriptionPlanID" json:"payments,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *SubscriptionPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CanUseProvider reports whether the plan grants access to the given AI
// provider. Unknown providers are never granted.
func (p *SubscriptionPlan) CanUseProvider(provider string) bool {
	switch provider {
	case "chatgpt":
		return p.CanUseChatGPT
	case "gemini":
		return p.CanUseGemini
	case "deepseek":
		return p.CanUseDeepSeek
	default:
		return false
	}
}

// UnlimitedRequests reports whether the plan has no monthly AI request cap.
func (p *SubscriptionPlan) UnlimitedRequests() bool {
	return p.AIRequestsLimit <= 0
}

// UnlimitedAgents reports whether the plan has no custom agent cap.
func (p *SubscriptionPlan) UnlimitedAgents() bool {
	return p.CustomAgentsLimit <= 0
}
