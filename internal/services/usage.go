package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/models"
)

// UsageService counts consumption against plan limits. Request quotas are
// windowed to the calendar month in the server's location; agent caps are
// lifetime counts of non-deleted agents.
type UsageService struct {
	db          *gorm.DB
	entitlement *EntitlementService
	now         func() time.Time
}

func NewUsageService(db *gorm.DB, entitlement *EntitlementService) *UsageService {
	return &UsageService{db: db, entitlement: entitlement, now: time.Now}
}

// monthWindow returns [start of current month, start of next month).
func (s *UsageService) monthWindow() (time.Time, time.Time) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// MonthlyInteractions counts the user's interaction rows created in the
// current calendar month. Failed attempts count too: a provider call was
// made for them.
func (s *UsageService) MonthlyInteractions(userID uuid.UUID) (int64, error) {
	from, to := s.monthWindow()
	var count int64
	err := s.db.Model(&models.AIInteraction{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Count(&count).Error
	return count, err
}

// WithinRequestQuota reports whether the user may make one more AI request
// this month. No subscription means no quota at all.
func (s *UsageService) WithinRequestQuota(userID uuid.UUID) (bool, error) {
	ent, err := s.entitlement.Resolve(userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return false, nil
		}
		return false, err
	}
	if ent.Plan.UnlimitedRequests() {
		return true, nil
	}

	used, err := s.MonthlyInteractions(userID)
	if err != nil {
		return false, err
	}
	return used < int64(ent.Plan.AIRequestsLimit), nil
}

// AgentCount counts the user's non-deleted custom agents, active or not.
func (s *UsageService) AgentCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.CustomAgent{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// AgentCreationAllowed reports whether the user may create another custom
// agent under the plan's lifetime cap.
func (s *UsageService) AgentCreationAllowed(userID uuid.UUID) (bool, error) {
	ent, err := s.entitlement.Resolve(userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return false, nil
		}
		return false, err
	}
	if ent.Plan.UnlimitedAgents() {
		return true, nil
	}

	count, err := s.AgentCount(userID)
	if err != nil {
		return false, err
	}
	return count < int64(ent.Plan.CustomAgentsLimit), nil
}
