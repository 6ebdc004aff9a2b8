package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus is the lifecycle state of a payment. Pending payments move
// to approved or rejected exactly once; terminal states never change.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// Payment is one billing attempt for a subscription plan. The coverage
// window (subscription_starts_at..subscription_ends_at) is computed at
// checkout; an approved payment whose window is still open is the user's
// active subscription.
type Payment struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SubscriptionPlanID uuid.UUID `gorm:"type:uuid;not null" json:"subscription_plan_id"`

	Amount        float64       `gorm:"not null" json:"amount"`
	PaymentMethod string        `gorm:"size:50" json:"payment_method"`
	Status        PaymentStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`

	// Identifiers assigned by the gateway
	GatewayPaymentID string `gorm:"size:100" json:"gateway_payment_id"`
	PayerID          string `gorm:"size:100" json:"payer_id"`
	PayerEmail       string `gorm:"size:255" json:"payer_email"`

	PaidAt               *time.Time `json:"paid_at,omitempty"`
	SubscriptionStartsAt time.Time  `json:"subscription_starts_at"`
	SubscriptionEndsAt   time.Time  `gorm:"index" json:"subscription_ends_at"`

	// Gateway-specific audit trail, accumulated via non-destructive merge.
	PaymentData JSONMap `gorm:"type:jsonb" json:"payment_data,omitempty"`

	User             *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SubscriptionPlan *SubscriptionPlan `gorm:"foreignKey:SubscriptionPlanID" json:"subscription_plan,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the payment backs a live subscription at the
// given instant: approved and not yet past its coverage window.
func (p *Payment) IsActive(now time.Time) bool {
	return p.Status == PaymentApproved && p.SubscriptionEndsAt.After(now)
}

// IsExpiringSoon reports whether an active subscription ends within 7 days.
func (p *Payment) IsExpiringSoon(now time.Time) bool {
	return p.IsActive(now) && p.SubscriptionEndsAt.Sub(now) <= 7*24*time.Hour
}

// IsTerminal reports whether the payment reached a final state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentApproved || p.Status == PaymentRejected
}

// SubscriptionEndDate computes the end of a coverage window starting at
// start. Unrecognized billing periods fall back to one month.
func SubscriptionEndDate(start time.Time, period BillingPeriod) time.Time {
	switch period {
	case BillingMonthly:
		return start.AddDate(0, 1, 0)
	case BillingQuarterly:
		return start.AddDate(0, 3, 0)
	case BillingYearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 1, 0)
	}
}
