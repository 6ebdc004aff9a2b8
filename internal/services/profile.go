package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/models"
)

// ProfileService manages the optional 1:1 profile extension of a user. The
// row is created lazily on the first update.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// ProfileInput carries the writable profile fields. Nil pointers leave the
// stored value untouched.
type ProfileInput struct {
	FullName   *string
	Phone      *string
	Address    *string
	City       *string
	State      *string
	Country    *string
	PostalCode *string
	Company    *string
	JobTitle   *string
	Avatar     *string
	Bio        *string
}

// Get returns the user's profile, or nil when none was created yet.
func (s *ProfileService) Get(userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Upsert creates or updates the profile with the provided fields.
func (s *ProfileService) Upsert(userID uuid.UUID, in *ProfileInput) (*models.UserProfile, error) {
	profile, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.UserProfile{UserID: userID}
		if err := s.db.Create(profile).Error; err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	set("full_name", in.FullName)
	set("phone", in.Phone)
	set("address", in.Address)
	set("city", in.City)
	set("state", in.State)
	set("country", in.Country)
	set("postal_code", in.PostalCode)
	set("company", in.Company)
	set("job_title", in.JobTitle)
	set("avatar", in.Avatar)
	set("bio", in.Bio)

	if len(updates) > 0 {
		if err := s.db.Model(profile).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	// keep the display name in sync when a full name is provided
	if in.FullName != nil && *in.FullName != "" {
		if err := s.db.Model(&models.User{}).Where("id = ?", userID).
			Update("name", *in.FullName).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(userID)
}
