package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/models"
)

// DashboardService aggregates read-only stats for the user dashboard and
// the admin overview.
type DashboardService struct {
	db          *gorm.DB
	entitlement *EntitlementService
	usage       *UsageService
	now         func() time.Time
}

func NewDashboardService(db *gorm.DB, entitlement *EntitlementService, usage *UsageService) *DashboardService {
	return &DashboardService{db: db, entitlement: entitlement, usage: usage, now: time.Now}
}

// ResourceUsage is one metered resource against its plan limit. Limit zero
// means unlimited and Percent stays at zero.
type ResourceUsage struct {
	Used    int64   `json:"used"`
	Limit   int     `json:"limit"`
	Percent float64 `json:"percent"`
}

// UserStats is the subscriber's dashboard payload.
type UserStats struct {
	HasSubscription    bool                     `json:"has_subscription"`
	Plan               *models.SubscriptionPlan `json:"plan,omitempty"`
	SubscriptionEndsAt *time.Time               `json:"subscription_ends_at,omitempty"`
	ExpiringSoon       bool                     `json:"expiring_soon"`
	AIRequests         ResourceUsage            `json:"ai_requests"`
	CustomAgents       ResourceUsage            `json:"custom_agents"`
	MonthlySpend       float64                  `json:"monthly_spend"`
	RecentInteractions []models.AIInteraction   `json:"recent_interactions"`
}

// UserStats builds the dashboard for one user. Unsubscribed users get
// zeroed usage and no plan, not an error.
func (s *DashboardService) UserStats(userID uuid.UUID) (*UserStats, error) {
	stats := &UserStats{}

	ent, err := s.entitlement.Resolve(userID)
	if err != nil && !errors.Is(err, ErrNoActiveSubscription) {
		return nil, err
	}
	if ent != nil {
		stats.HasSubscription = true
		stats.Plan = ent.Plan
		stats.SubscriptionEndsAt = &ent.Payment.SubscriptionEndsAt
		stats.ExpiringSoon = ent.Payment.IsExpiringSoon(s.now())
	}

	requestsUsed, err := s.usage.MonthlyInteractions(userID)
	if err != nil {
		return nil, err
	}
	agentsUsed, err := s.usage.AgentCount(userID)
	if err != nil {
		return nil, err
	}
	if ent != nil {
		stats.AIRequests = resourceUsage(requestsUsed, ent.Plan.AIRequestsLimit)
		stats.CustomAgents = resourceUsage(agentsUsed, ent.Plan.CustomAgentsLimit)
	} else {
		stats.AIRequests = ResourceUsage{Used: requestsUsed}
		stats.CustomAgents = ResourceUsage{Used: agentsUsed}
	}

	monthStart, _ := s.usage.monthWindow()
	var spend float64
	err = s.db.Model(&models.AIInteraction{}).
		Where("user_id = ? AND is_successful = ? AND created_at >= ?", userID, true, monthStart).
		Select("COALESCE(SUM(cost), 0)").
		Scan(&spend).Error
	if err != nil {
		return nil, err
	}
	stats.MonthlySpend = spend

	err = s.db.Preload("AIService").Preload("CustomAgent").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(5).
		Find(&stats.RecentInteractions).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func resourceUsage(used int64, limit int) ResourceUsage {
	ru := ResourceUsage{Used: used, Limit: limit}
	if limit > 0 {
		ru.Percent = float64(used) / float64(limit) * 100
	}
	return ru
}

// AdminStats is the platform-wide overview for administrators.
type AdminStats struct {
	TotalUsers             int64            `json:"total_users"`
	ActiveSubscriptions    int64            `json:"active_subscriptions"`
	PendingPayments        int64            `json:"pending_payments"`
	TotalRevenue           float64          `json:"total_revenue"`
	TotalInteractions      int64            `json:"total_interactions"`
	InteractionsByProvider map[string]int64 `json:"interactions_by_provider"`
}

// AdminStats aggregates platform-wide counters.
func (s *DashboardService) AdminStats() (*AdminStats, error) {
	stats := &AdminStats{InteractionsByProvider: map[string]int64{}}
	now := s.now()

	if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Payment{}).
		Where("status = ? AND subscription_ends_at > ?", models.PaymentApproved, now).
		Count(&stats.ActiveSubscriptions).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentPending).
		Count(&stats.PendingPayments).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.AIInteraction{}).Count(&stats.TotalInteractions).Error; err != nil {
		return nil, err
	}

	rows := []struct {
		Provider string
		Count    int64
	}{}
	err := s.db.Model(&models.AIInteraction{}).
		Select("ai_services.provider AS provider, COUNT(*) AS count").
		Joins("JOIN ai_services ON ai_services.id = ai_interactions.ai_service_id").
		Group("ai_services.provider").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.InteractionsByProvider[r.Provider] = r.Count
	}
	return stats, nil
}
