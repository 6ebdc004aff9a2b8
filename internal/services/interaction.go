package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/logger"
	"github.com/genaiplatform/backend/internal/models"
	"github.com/genaiplatform/backend/internal/providers"
	"github.com/genaiplatform/backend/internal/websocket"
)

var (
	ErrServiceNotFound    = errors.New("AI service not found")
	ErrProviderNotAllowed = errors.New("plan does not include this provider")
	ErrQuotaExceeded      = errors.New("monthly AI request limit reached")
	ErrInteractionMissing = errors.New("interaction not found")
)

// InteractionService runs the AI request pipeline and keeps the audit
// trail. Every attempt that passes the entitlement gates produces exactly
// one interaction row, successful or not.
type InteractionService struct {
	db          *gorm.DB
	registry    *providers.Registry
	entitlement *EntitlementService
	usage       *UsageService
	hub         *websocket.Hub
}

func NewInteractionService(db *gorm.DB, registry *providers.Registry, entitlement *EntitlementService, usage *UsageService, hub *websocket.Hub) *InteractionService {
	return &InteractionService{
		db:          db,
		registry:    registry,
		entitlement: entitlement,
		usage:       usage,
		hub:         hub,
	}
}

// Ask runs a direct prompt against an AI service. The interaction row is
// returned even when the provider call failed; the error tells the caller
// which gate or call broke.
func (s *InteractionService) Ask(ctx context.Context, user *models.User, serviceID uuid.UUID, prompt string) (*models.AIInteraction, error) {
	service, err := s.activeService(serviceID)
	if err != nil {
		return nil, err
	}
	if err := s.gate(user.ID, service); err != nil {
		return nil, err
	}
	return s.dispatch(ctx, user, service, prompt, prompt, nil)
}

// activeService loads an active catalog entry by id.
func (s *InteractionService) activeService(serviceID uuid.UUID) (*models.AIService, error) {
	var service models.AIService
	err := s.db.Where("id = ? AND is_active = ?", serviceID, true).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

// gate checks subscription, provider grant and monthly quota, in that
// order. No interaction row exists yet when a gate rejects.
func (s *InteractionService) gate(userID uuid.UUID, service *models.AIService) error {
	ent, err := s.entitlement.Resolve(userID)
	if err != nil {
		return err
	}
	if !ent.Plan.CanUseProvider(service.Provider) {
		return ErrProviderNotAllowed
	}

	ok, err := s.usage.WithinRequestQuota(userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrQuotaExceeded
	}
	return nil
}

// dispatch records the attempt, calls the provider, and resolves the row.
// recordedPrompt is what the audit trail keeps (the raw user input for
// agent calls); wirePrompt is what actually goes to the provider.
func (s *InteractionService) dispatch(ctx context.Context, user *models.User, service *models.AIService, recordedPrompt, wirePrompt string, agentID *uuid.UUID) (*models.AIInteraction, error) {
	interaction := &models.AIInteraction{
		UserID:        user.ID,
		AIServiceID:   service.ID,
		CustomAgentID: agentID,
		Prompt:        recordedPrompt,
	}
	if err := s.db.Create(interaction).Error; err != nil {
		return nil, err
	}

	result, err := s.registry.Complete(ctx, service, wirePrompt)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("user_id", user.ID.String()).
			Str("provider", service.Provider).
			Str("interaction_id", interaction.ID.String()).
			Msg("provider call failed")

		if failErr := s.completeFailure(interaction, err.Error()); failErr != nil {
			return interaction, failErr
		}
		return interaction, err
	}

	if err := s.completeSuccess(interaction, result); err != nil {
		return interaction, err
	}

	s.hub.BroadcastToUser(user.ID.String(), "interaction:completed", map[string]interface{}{
		"interaction_id": interaction.ID,
		"tokens_used":    interaction.TokensUsed,
		"cost":           interaction.Cost,
	})
	return interaction, nil
}

// completeSuccess resolves a placeholder row with the normalized provider
// result.
func (s *InteractionService) completeSuccess(interaction *models.AIInteraction, result *providers.Result) error {
	interaction.Response = &result.Text
	interaction.TokensUsed = result.TokensUsed
	interaction.Cost = result.Cost
	interaction.IsSuccessful = true
	interaction.ErrorMessage = nil
	interaction.Metadata = result.Metadata

	return s.db.Model(interaction).Updates(map[string]interface{}{
		"response":      result.Text,
		"tokens_used":   result.TokensUsed,
		"cost":          result.Cost,
		"is_successful": true,
		"error_message": nil,
		"metadata":      result.Metadata,
	}).Error
}

// completeFailure resolves a placeholder row with the failure message,
// keeping tokens and cost at zero.
func (s *InteractionService) completeFailure(interaction *models.AIInteraction, message string) error {
	interaction.IsSuccessful = false
	interaction.ErrorMessage = &message

	return s.db.Model(interaction).Updates(map[string]interface{}{
		"is_successful": false,
		"error_message": message,
	}).Error
}

// Get loads one interaction; non-admins only see their own.
func (s *InteractionService) Get(requester *models.User, id uuid.UUID) (*models.AIInteraction, error) {
	var interaction models.AIInteraction
	query := s.db.Preload("AIService").Preload("CustomAgent").Where("id = ?", id)
	if !requester.IsAdmin {
		query = query.Where("user_id = ?", requester.ID)
	}
	if err := query.First(&interaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInteractionMissing
		}
		return nil, err
	}
	return &interaction, nil
}

// History lists a user's interactions, newest first.
func (s *InteractionService) History(userID uuid.UUID, limit, offset int) ([]models.AIInteraction, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.AIInteraction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var interactions []models.AIInteraction
	err := s.db.Preload("AIService").Preload("CustomAgent").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&interactions).Error
	return interactions, total, err
}

// SpendSince sums the cost of a user's successful interactions from the
// given instant.
func (s *InteractionService) SpendSince(userID uuid.UUID, since time.Time) (float64, error) {
	var total float64
	err := s.db.Model(&models.AIInteraction{}).
		Where("user_id = ? AND is_successful = ? AND created_at >= ?", userID, true, since).
		Select("COALESCE(SUM(cost), 0)").
		Scan(&total).Error
	return total, err
}
