package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionEndDate(t *testing.T) {
	start := time.Date(2026, 1, 31, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		period BillingPeriod
		want   time.Time
	}{
		{BillingMonthly, start.AddDate(0, 1, 0)},
		{BillingQuarterly, start.AddDate(0, 3, 0)},
		{BillingYearly, time.Date(2027, 1, 31, 10, 30, 0, 0, time.UTC)},
		{BillingPeriod("lifetime"), start.AddDate(0, 1, 0)},
		{BillingPeriod(""), start.AddDate(0, 1, 0)},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SubscriptionEndDate(start, c.period), string(c.period))
	}
}

func TestPaymentIsActive(t *testing.T) {
	now := time.Now()
	future := now.AddDate(0, 1, 0)
	past := now.Add(-time.Hour)

	assert.True(t, (&Payment{Status: PaymentApproved, SubscriptionEndsAt: future}).IsActive(now))
	assert.False(t, (&Payment{Status: PaymentApproved, SubscriptionEndsAt: past}).IsActive(now))
	assert.False(t, (&Payment{Status: PaymentPending, SubscriptionEndsAt: future}).IsActive(now))
	assert.False(t, (&Payment{Status: PaymentRejected, SubscriptionEndsAt: future}).IsActive(now))
}

func TestPaymentIsExpiringSoon(t *testing.T) {
	now := time.Now()

	in3Days := &Payment{Status: PaymentApproved, SubscriptionEndsAt: now.Add(3 * 24 * time.Hour)}
	assert.True(t, in3Days.IsExpiringSoon(now))

	in10Days := &Payment{Status: PaymentApproved, SubscriptionEndsAt: now.Add(10 * 24 * time.Hour)}
	assert.False(t, in10Days.IsExpiringSoon(now))

	lapsed := &Payment{Status: PaymentApproved, SubscriptionEndsAt: now.Add(-time.Hour)}
	assert.False(t, lapsed.IsExpiringSoon(now))
}

func TestPlanProviderGrants(t *testing.T) {
	plan := &SubscriptionPlan{CanUseChatGPT: true, CanUseDeepSeek: true}

	assert.True(t, plan.CanUseProvider("chatgpt"))
	assert.False(t, plan.CanUseProvider("gemini"))
	assert.True(t, plan.CanUseProvider("deepseek"))
	assert.False(t, plan.CanUseProvider("claude"))
	assert.False(t, plan.CanUseProvider(""))
}
