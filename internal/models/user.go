package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:100" json:"name"`

	IsActive    bool       `gorm:"not null" json:"is_active"`
	IsAdmin     bool       `gorm:"not null" json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Relations
	Profile      *UserProfile    `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Payments     []Payment       `gorm:"foreignKey:UserID" json:"payments,omitempty"`
	CustomAgents []CustomAgent   `gorm:"foreignKey:UserID" json:"custom_agents,omitempty"`
	Interactions []AIInteraction `gorm:"foreignKey:UserID" json:"interactions,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserProfile is the optional 1:1 extension of a user, created lazily on the
// first profile update.
type UserProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	FullName   string `gorm:"size:255" json:"full_name"`
	Phone      string `gorm:"size:20" json:"phone"`
	Address    string `gorm:"size:255" json:"address"`
	City       string `gorm:"size:100" json:"city"`
	State      string `gorm:"size:100" json:"state"`
	Country    string `gorm:"size:100" json:"country"`
	PostalCode string `gorm:"size:20" json:"postal_code"`
	Company    string `gorm:"size:255" json:"company"`
	JobTitle   string `gorm:"size:255" json:"job_title"`
	Avatar     string `gorm:"size:500" json:"avatar"`
	Bio        string `gorm:"size:1000" json:"bio"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
