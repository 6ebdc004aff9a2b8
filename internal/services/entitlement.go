package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/models"
)

// ErrNoActiveSubscription means the user has no approved payment whose
// coverage window includes the current instant.
var ErrNoActiveSubscription = errors.New("no active subscription")

// Entitlement is the resolved view of what a user may do right now: the
// backing payment, its plan, and the plan's limits and provider grants.
type Entitlement struct {
	Payment *models.Payment
	Plan    *models.SubscriptionPlan
}

// EntitlementService resolves subscription entitlements from payment rows.
// It never caches: plan changes and new approvals take effect on the next
// request.
type EntitlementService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEntitlementService(db *gorm.DB) *EntitlementService {
	return &EntitlementService{db: db, now: time.Now}
}

// ActivePayment returns the user's current subscription payment: approved,
// coverage window still open, latest end date wins when several overlap.
func (s *EntitlementService) ActivePayment(userID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Preload("SubscriptionPlan").
		Where("user_id = ? AND status = ? AND subscription_ends_at > ?",
			userID, models.PaymentApproved, s.now()).
		Order("subscription_ends_at DESC").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	return &payment, nil
}

// Resolve returns the user's entitlement or ErrNoActiveSubscription.
func (s *EntitlementService) Resolve(userID uuid.UUID) (*Entitlement, error) {
	payment, err := s.ActivePayment(userID)
	if err != nil {
		return nil, err
	}
	if payment.SubscriptionPlan == nil {
		return nil, errors.New("payment references missing subscription plan")
	}
	return &Entitlement{Payment: payment, Plan: payment.SubscriptionPlan}, nil
}

// CanUseProvider reports whether the user's plan grants the provider. A user
// without a subscription is granted nothing.
func (s *EntitlementService) CanUseProvider(userID uuid.UUID, provider string) (bool, error) {
	ent, err := s.Resolve(userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return false, nil
		}
		return false, err
	}
	return ent.Plan.CanUseProvider(provider), nil
}

// AvailableServices lists the active AI services whose providers the user's
// plan grants. An empty slice for unsubscribed users, not an error.
func (s *EntitlementService) AvailableServices(userID uuid.UUID) ([]models.AIService, error) {
	ent, err := s.Resolve(userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return []models.AIService{}, nil
		}
		return nil, err
	}

	granted := make([]string, 0, 3)
	for _, p := range []string{"chatgpt", "gemini", "deepseek"} {
		if ent.Plan.CanUseProvider(p) {
			granted = append(granted, p)
		}
	}
	if len(granted) == 0 {
		return []models.AIService{}, nil
	}

	var servicesList []models.AIService
	err = s.db.Where("is_active = ? AND provider IN ?", true, granted).
		Order("name ASC").
		Find(&servicesList).Error
	return servicesList, err
}
