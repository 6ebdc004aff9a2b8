package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genaiplatform/backend/internal/models"
)

func TestResolveWithoutPayments(t *testing.T) {
	db := openTestDB(t)
	svc := NewEntitlementService(db)
	user := createUser(t, db)

	_, err := svc.Resolve(user.ID)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
}

func TestResolveIgnoresPendingAndRejected(t *testing.T) {
	db := openTestDB(t)
	svc := NewEntitlementService(db)
	user := createUser(t, db)
	plan := createPlan(t, db, nil)

	for _, status := range []models.PaymentStatus{models.PaymentPending, models.PaymentRejected} {
		payment := &models.Payment{
			UserID:               user.ID,
			SubscriptionPlanID:   plan.ID,
			Amount:               plan.Price,
			Status:               status,
			SubscriptionStartsAt: time.Now(),
			SubscriptionEndsAt:   time.Now().AddDate(0, 1, 0),
		}
		require.NoError(t, db.Create(payment).Error)
	}

	_, err := svc.Resolve(user.ID)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
}

func TestResolveIgnoresExpiredApproval(t *testing.T) {
	db := openTestDB(t)
	svc := NewEntitlementService(db)
	user := createUser(t, db)
	plan := createPlan(t, db, nil)

	createApprovedPayment(t, db, user, plan, time.Now().Add(-time.Hour))

	_, err := svc.Resolve(user.ID)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
}

func TestResolveReturnsCurrentPlan(t *testing.T) {
	db := openTestDB(t)
	svc := NewEntitlementService(db)
	user := createUser(t, db)
	plan := createPlan(t, db, nil)

	createApprovedPayment(t, db, user, plan, time.Now().AddDate(0, 1, 0))

	ent, err := svc.Resolve(user.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, ent.Plan.ID)
	assert.Equal(t, user.ID, ent.Payment.UserID)
}

func TestResolvePrefersLatestWindow(t *testing.T) {
	db := openTestDB(t)
	svc := NewEntitlementService(db)
	user := createUser(t, db)
	shortPlan := createPlan(t, db, func(p *models.SubscriptionPlan) { p.Name = "Short" })
	longPlan := createPlan(t, db, func(p *models.SubscriptionPlan) { p.Name = "Long" })

	createApprovedPayment(t, db, user, shortPlan, time.Now().AddDate(0, 0, 7))
	createApprovedPayment(t, db, user, longPlan, time.Now().AddDate(1, 0, 0))

	ent, err := svc.Resolve(user.ID)
	require.NoError(t, err)
	assert.Equal(t, longPlan.ID, ent.Plan.ID)
}

func TestResolveExpiryIsClockDriven(t *testing.T) {
	db := openTestDB(t)
	svc := NewEntitlementService(db)
	user := createUser(t, db)
	plan := createPlan(t, db, nil)
	endsAt := time.Now().AddDate(0, 1, 0)

	createApprovedPayment(t, db, user, plan, endsAt)

	_, err := svc.Resolve(user.ID)
	require.NoError(t, err)

	// move the clock past the window, with no writes in between
	svc.now = func() time.Time { return endsAt.Add(time.Minute) }
	_, err = svc.Resolve(user.ID)
	assert.ErrorIs(t, err, ErrNoActiveSubscription)
}

func TestCanUseProvider(t *testing.T) {
	db := openTestDB(t)
	svc := NewEntitlementService(db)
	user := createUser(t, db)
	plan := createPlan(t, db, func(p *models.SubscriptionPlan) {
		p.CanUseChatGPT = true
		p.CanUseGemini = false
		p.CanUseDeepSeek = false
	})
	createApprovedPayment(t, db, user, plan, time.Now().AddDate(0, 1, 0))

	for provider, want := range map[string]bool{
		"chatgpt":  true,
		"gemini":   false,
		"deepseek": false,
		"mistral":  false,
	} {
		got, err := svc.CanUseProvider(user.ID, provider)
		require.NoError(t, err)
		assert.Equal(t, want, got, provider)
	}

	stranger := createUser(t, db)
	got, err := svc.CanUseProvider(stranger.ID, "chatgpt")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestAvailableServicesFiltersByGrant(t *testing.T) {
	db := openTestDB(t)
	svc := NewEntitlementService(db)
	user := createUser(t, db)
	plan := createPlan(t, db, func(p *models.SubscriptionPlan) {
		p.CanUseChatGPT = true
		p.CanUseGemini = false
	})
	createApprovedPayment(t, db, user, plan, time.Now().AddDate(0, 1, 0))

	chatgpt := createAIService(t, db, "chatgpt", 1.0)
	createAIService(t, db, "gemini", 1.0)
	inactive := createAIService(t, db, "chatgpt", 1.0)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	list, err := svc.AvailableServices(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, chatgpt.ID, list[0].ID)
}

func TestAvailableServicesWithoutSubscription(t *testing.T) {
	db := openTestDB(t)
	svc := NewEntitlementService(db)
	user := createUser(t, db)
	createAIService(t, db, "chatgpt", 1.0)

	list, err := svc.AvailableServices(user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
