package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genaiplatform/backend/internal/models"
)

func TestWithinRequestQuotaCountsOnlyCurrentMonth(t *testing.T) {
	db := openTestDB(t)
	ent := NewEntitlementService(db)
	usage := NewUsageService(db, ent)
	user := createUser(t, db)
	plan := createPlan(t, db, func(p *models.SubscriptionPlan) { p.AIRequestsLimit = 2 })
	createApprovedPayment(t, db, user, plan, time.Now().AddDate(0, 1, 0))
	service := createAIService(t, db, "chatgpt", 1.0)

	// interactions from last month never count against this month
	createInteraction(t, db, user, service, time.Now().AddDate(0, -1, 0), true)

	ok, err := usage.WithinRequestQuota(user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	createInteraction(t, db, user, service, time.Now(), true)
	ok, err = usage.WithinRequestQuota(user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// failed attempts consume quota as well
	createInteraction(t, db, user, service, time.Now(), false)
	ok, err = usage.WithinRequestQuota(user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithinRequestQuotaUnlimited(t *testing.T) {
	db := openTestDB(t)
	ent := NewEntitlementService(db)
	usage := NewUsageService(db, ent)
	user := createUser(t, db)
	plan := createPlan(t, db, func(p *models.SubscriptionPlan) { p.AIRequestsLimit = 0 })
	createApprovedPayment(t, db, user, plan, time.Now().AddDate(0, 1, 0))
	service := createAIService(t, db, "chatgpt", 1.0)

	for i := 0; i < 25; i++ {
		createInteraction(t, db, user, service, time.Now(), true)
	}

	ok, err := usage.WithinRequestQuota(user.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithinRequestQuotaNoSubscription(t *testing.T) {
	db := openTestDB(t)
	usage := NewUsageService(db, NewEntitlementService(db))
	user := createUser(t, db)

	ok, err := usage.WithinRequestQuota(user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAgentCreationLifetimeCap(t *testing.T) {
	db := openTestDB(t)
	usage := NewUsageService(db, NewEntitlementService(db))
	user := createUser(t, db)
	plan := createPlan(t, db, func(p *models.SubscriptionPlan) { p.CustomAgentsLimit = 1 })
	createApprovedPayment(t, db, user, plan, time.Now().AddDate(0, 1, 0))
	service := createAIService(t, db, "chatgpt", 1.0)

	ok, err := usage.AgentCreationAllowed(user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	agent := &models.CustomAgent{
		UserID:       user.ID,
		AIServiceID:  service.ID,
		Name:         "Helper",
		Instructions: "be helpful at all times",
		IsActive:     false, // inactive agents still count against the cap
	}
	require.NoError(t, db.Create(agent).Error)

	ok, err = usage.AgentCreationAllowed(user.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAgentCreationUnlimited(t *testing.T) {
	db := openTestDB(t)
	usage := NewUsageService(db, NewEntitlementService(db))
	user := createUser(t, db)
	plan := createPlan(t, db, func(p *models.SubscriptionPlan) { p.CustomAgentsLimit = -1 })
	createApprovedPayment(t, db, user, plan, time.Now().AddDate(0, 1, 0))
	service := createAIService(t, db, "chatgpt", 1.0)

	for i := 0; i < 3; i++ {
		agent := &models.CustomAgent{
			UserID:       user.ID,
			AIServiceID:  service.ID,
			Name:         "Helper",
			Instructions: "be helpful at all times",
			IsActive:     true,
		}
		require.NoError(t, db.Create(agent).Error)
	}

	ok, err := usage.AgentCreationAllowed(user.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMonthWindowBoundaries(t *testing.T) {
	db := openTestDB(t)
	usage := NewUsageService(db, NewEntitlementService(db))
	usage.now = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}

	from, to := usage.monthWindow()
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), to)
}
