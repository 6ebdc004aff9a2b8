package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AIService is a catalog entry describing one provider integration. The API
// key is never stored on the row; it is resolved from configuration by
// provider name at call time.
type AIService struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Provider    string    `gorm:"size:50;not null;index" json:"provider"`
	Model       string    `gorm:"size:100;not null" json:"model"`
	Description string    `gorm:"type:text" json:"description"`

	// Price per 1000 tokens, applied uniformly whether the token count was
	// measured or estimated.
	CostPerRequest float64 `gorm:"not null;default:0" json:"cost_per_request"`

	// Free-form defaults such as temperature and max_tokens.
	Parameters JSONMap `gorm:"type:jsonb" json:"parameters,omitempty"`

	IsActive bool `gorm:"not null" json:"is_active"`

	Interactions []AIInteraction `gorm:"foreignKey:AIServiceID" json:"interactions,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *AIService) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// AIInteraction is the immutable audit record of one AI call. A row is
// created as a placeholder before the provider call and resolved exactly
// once: is_successful=true implies a response and no error message.
type AIInteraction struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	AIServiceID   uuid.UUID  `gorm:"type:uuid;not null" json:"ai_service_id"`
	CustomAgentID *uuid.UUID `gorm:"type:uuid" json:"custom_agent_id,omitempty"`

	Prompt       string  `gorm:"type:text;not null" json:"prompt"`
	Response     *string `gorm:"type:text" json:"response,omitempty"`
	TokensUsed   int     `gorm:"not null;default:0" json:"tokens_used"`
	Cost         float64 `gorm:"not null;default:0" json:"cost"`
	IsSuccessful bool    `gorm:"not null;default:false" json:"is_successful"`
	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`

	// Full raw parsed provider response, kept for audit and debugging.
	Metadata JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AIService   *AIService   `gorm:"foreignKey:AIServiceID" json:"ai_service,omitempty"`
	CustomAgent *CustomAgent `gorm:"foreignKey:CustomAgentID" json:"custom_agent,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *AIInteraction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Summary returns the prompt truncated for list views.
func (i *AIInteraction) Summary(maxLength int) string {
	if len(i.Prompt) <= maxLength {
		return i.Prompt
	}
	return i.Prompt[:maxLength] + "..."
}

// CustomAgent is a user-owned prompt wrapper over an AI service. Public and
// active agents may be used (but never edited) by other users.
type CustomAgent struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	AIServiceID uuid.UUID `gorm:"type:uuid;not null" json:"ai_service_id"`

	Name          string `gorm:"size:255;not null" json:"name"`
	Description   string `gorm:"size:1000" json:"description"`
	Instructions  string `gorm:"type:text;not null" json:"instructions"`
	KnowledgeBase string `gorm:"type:text" json:"knowledge_base"`

	Parameters JSONMap `gorm:"type:jsonb" json:"parameters,omitempty"`

	IsActive   bool `gorm:"not null" json:"is_active"`
	IsPublic   bool `gorm:"not null" json:"is_public"`
	UsageCount int  `gorm:"not null;default:0" json:"usage_count"`

	User         *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AIService    *AIService      `gorm:"foreignKey:AIServiceID" json:"ai_service,omitempty"`
	Interactions []AIInteraction `gorm:"foreignKey:CustomAgentID" json:"interactions,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *CustomAgent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CanBeUsedBy reports whether a user may interact with this agent: the
// owner always can; anyone else only while the agent is public and active.
func (a *CustomAgent) CanBeUsedBy(userID uuid.UUID) bool {
	return a.UserID == userID || (a.IsPublic && a.IsActive)
}

// OwnedBy reports strict ownership; mutation requires it regardless of
// visibility.
func (a *CustomAgent) OwnedBy(userID uuid.UUID) bool {
	return a.UserID == userID
}

// BuildPrompt assembles the final prompt sent to the provider: system
// instructions, then the knowledge base when present, then the user input.
func (a *CustomAgent) BuildPrompt(userInput string) string {
	prompt := fmt.Sprintf("System instructions:\n%s\n\n", a.Instructions)
	if a.KnowledgeBase != "" {
		prompt += fmt.Sprintf("Base knowledge:\n%s\n\n", a.KnowledgeBase)
	}
	prompt += fmt.Sprintf("User input:\n%s", userInput)
	return prompt
}
