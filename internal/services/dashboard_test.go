package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genaiplatform/backend/internal/models"
)

func TestUserStatsWithSubscription(t *testing.T) {
	db := openTestDB(t)
	ent := NewEntitlementService(db)
	usage := NewUsageService(db, ent)
	svc := NewDashboardService(db, ent, usage)

	user := createUser(t, db)
	plan := createPlan(t, db, func(p *models.SubscriptionPlan) {
		p.AIRequestsLimit = 10
		p.CustomAgentsLimit = 4
	})
	createApprovedPayment(t, db, user, plan, time.Now().AddDate(0, 1, 0))
	service := createAIService(t, db, "chatgpt", 1.0)

	for i := 0; i < 5; i++ {
		interaction := createInteraction(t, db, user, service, time.Now(), true)
		require.NoError(t, db.Model(interaction).UpdateColumn("cost", 0.01).Error)
	}

	agent := &models.CustomAgent{UserID: user.ID, AIServiceID: service.ID, Name: "A", Instructions: "be brief and clear"}
	require.NoError(t, db.Create(agent).Error)

	stats, err := svc.UserStats(user.ID)
	require.NoError(t, err)

	assert.True(t, stats.HasSubscription)
	assert.Equal(t, plan.ID, stats.Plan.ID)
	assert.Equal(t, int64(5), stats.AIRequests.Used)
	assert.Equal(t, 10, stats.AIRequests.Limit)
	assert.InDelta(t, 50.0, stats.AIRequests.Percent, 1e-9)
	assert.Equal(t, int64(1), stats.CustomAgents.Used)
	assert.InDelta(t, 25.0, stats.CustomAgents.Percent, 1e-9)
	assert.InDelta(t, 0.05, stats.MonthlySpend, 1e-9)
	assert.Len(t, stats.RecentInteractions, 5)
}

func TestUserStatsWithoutSubscription(t *testing.T) {
	db := openTestDB(t)
	ent := NewEntitlementService(db)
	svc := NewDashboardService(db, ent, NewUsageService(db, ent))
	user := createUser(t, db)

	stats, err := svc.UserStats(user.ID)
	require.NoError(t, err)

	assert.False(t, stats.HasSubscription)
	assert.Nil(t, stats.Plan)
	assert.Zero(t, stats.AIRequests.Used)
}

func TestUserStatsUnlimitedPlanReportsZeroPercent(t *testing.T) {
	db := openTestDB(t)
	ent := NewEntitlementService(db)
	svc := NewDashboardService(db, ent, NewUsageService(db, ent))

	user := createUser(t, db)
	plan := createPlan(t, db, func(p *models.SubscriptionPlan) { p.AIRequestsLimit = 0 })
	createApprovedPayment(t, db, user, plan, time.Now().AddDate(0, 1, 0))
	service := createAIService(t, db, "chatgpt", 1.0)
	createInteraction(t, db, user, service, time.Now(), true)

	stats, err := svc.UserStats(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AIRequests.Used)
	assert.Zero(t, stats.AIRequests.Percent)
}

func TestAdminStats(t *testing.T) {
	db := openTestDB(t)
	ent := NewEntitlementService(db)
	svc := NewDashboardService(db, ent, NewUsageService(db, ent))

	alice := createUser(t, db)
	bob := createUser(t, db)
	plan := createPlan(t, db, nil)
	createApprovedPayment(t, db, alice, plan, time.Now().AddDate(0, 1, 0))
	createApprovedPayment(t, db, bob, plan, time.Now().Add(-time.Hour)) // lapsed

	pending := &models.Payment{
		UserID:               bob.ID,
		SubscriptionPlanID:   plan.ID,
		Amount:               plan.Price,
		Status:               models.PaymentPending,
		SubscriptionStartsAt: time.Now(),
		SubscriptionEndsAt:   time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, db.Create(pending).Error)

	chatgpt := createAIService(t, db, "chatgpt", 1.0)
	gemini := createAIService(t, db, "gemini", 1.0)
	createInteraction(t, db, alice, chatgpt, time.Now(), true)
	createInteraction(t, db, alice, chatgpt, time.Now(), false)
	createInteraction(t, db, bob, gemini, time.Now(), true)

	stats, err := svc.AdminStats()
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.ActiveSubscriptions)
	assert.Equal(t, int64(1), stats.PendingPayments)
	assert.InDelta(t, 2*plan.Price, stats.TotalRevenue, 1e-9)
	assert.Equal(t, int64(3), stats.TotalInteractions)
	assert.Equal(t, int64(2), stats.InteractionsByProvider["chatgpt"])
	assert.Equal(t, int64(1), stats.InteractionsByProvider["gemini"])
}
