package jobs

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/genaiplatform/backend/internal/logger"
	"github.com/genaiplatform/backend/internal/services"
)

// Scheduler runs the platform's periodic maintenance: expiry reminders,
// stale-payment reporting and auth token cleanup.
type Scheduler struct {
	cron      *cron.Cron
	container *services.Container
}

func NewScheduler(container *services.Container) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		container: container,
	}
}

// Start registers the jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	// daily at 09:00: remind users whose subscription ends within 7 days
	if _, err := s.cron.AddFunc("0 9 * * *", s.notifyExpiringSubscriptions); err != nil {
		return err
	}

	// hourly: report payments stuck in pending for more than a day
	if _, err := s.cron.AddFunc("0 * * * *", s.reportStalePendingPayments); err != nil {
		return err
	}

	// daily at 03:00: drop expired refresh tokens
	if _, err := s.cron.AddFunc("0 3 * * *", s.cleanupExpiredTokens); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) notifyExpiringSubscriptions() {
	payments, err := s.container.Payment.ExpiringSoon(7 * 24 * time.Hour)
	if err != nil {
		logger.Error().Err(err).Msg("expiring subscription scan failed")
		return
	}

	for _, p := range payments {
		planName := ""
		if p.SubscriptionPlan != nil {
			planName = p.SubscriptionPlan.Name
		}
		s.container.Hub.BroadcastToUser(p.UserID.String(), "subscription:expiring", map[string]interface{}{
			"payment_id": p.ID,
			"plan":       planName,
			"ends_at":    p.SubscriptionEndsAt,
		})
	}
	logger.Info().Int("count", len(payments)).Msg("expiring subscription reminders sent")
}

func (s *Scheduler) reportStalePendingPayments() {
	payments, err := s.container.Payment.StalePending(24 * time.Hour)
	if err != nil {
		logger.Error().Err(err).Msg("stale pending payment scan failed")
		return
	}
	if len(payments) == 0 {
		return
	}
	logger.Warn().Int("count", len(payments)).Msg("payments pending for more than 24h")
}

func (s *Scheduler) cleanupExpiredTokens() {
	removed, err := s.container.Auth.CleanupExpiredTokens()
	if err != nil {
		logger.Error().Err(err).Msg("refresh token cleanup failed")
		return
	}
	if removed > 0 {
		logger.Info().Int64("removed", removed).Msg("expired refresh tokens removed")
	}
}
