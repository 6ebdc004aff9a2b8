package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/models"
)

// ErrPlanInUse blocks deleting a plan that payments already reference.
var ErrPlanInUse = errors.New("plan has payments and cannot be deleted")

// PlanService is the admin-facing catalog of subscription plans. Users only
// ever see the active ones.
type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

// ListActive lists plans visible to users, cheapest first.
func (s *PlanService) ListActive() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := s.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

// ListAll lists every plan, for administrators.
func (s *PlanService) ListAll() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := s.db.Order("price ASC").Find(&plans).Error
	return plans, err
}

// Get loads one plan by id.
func (s *PlanService) Get(planID uuid.UUID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := s.db.First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Create adds a plan to the catalog.
func (s *PlanService) Create(plan *models.SubscriptionPlan) error {
	return s.db.Create(plan).Error
}

// Update applies field changes to a plan. Entitlements resolve from the
// plan row on every request, so changes take effect immediately for all
// subscribers.
func (s *PlanService) Update(planID uuid.UUID, updates map[string]interface{}) (*models.SubscriptionPlan, error) {
	plan, err := s.Get(planID)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.Model(plan).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(planID)
}

// Delete soft-deletes a plan, refusing while any payment references it.
// Deactivating is the way to retire a plan with history.
func (s *PlanService) Delete(planID uuid.UUID) error {
	plan, err := s.Get(planID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Payment{}).Where("subscription_plan_id = ?", planID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPlanInUse
	}
	return s.db.Delete(plan).Error
}
