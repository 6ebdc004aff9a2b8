package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/models"
)

var (
	ErrAgentNotFound     = errors.New("custom agent not found")
	ErrAgentForbidden    = errors.New("not allowed to use this agent")
	ErrAgentNotOwned     = errors.New("only the owner can modify this agent")
	ErrAgentLimitReached = errors.New("custom agent limit reached")
)

// AgentService manages user-owned prompt wrappers. Visibility rules: the
// owner can always use an agent; others only while it is public and active.
// Mutation always requires ownership.
type AgentService struct {
	db          *gorm.DB
	usage       *UsageService
	interaction *InteractionService
}

func NewAgentService(db *gorm.DB, usage *UsageService, interaction *InteractionService) *AgentService {
	return &AgentService{db: db, usage: usage, interaction: interaction}
}

// AgentInput carries the writable agent fields for create and update.
type AgentInput struct {
	Name          string
	Description   string
	AIServiceID   uuid.UUID
	Instructions  string
	KnowledgeBase string
	Parameters    models.JSONMap
	IsActive      *bool
	IsPublic      *bool
}

// Create makes a new agent for the owner, enforcing the plan's lifetime
// agent cap.
func (s *AgentService) Create(owner *models.User, in *AgentInput) (*models.CustomAgent, error) {
	allowed, err := s.usage.AgentCreationAllowed(owner.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAgentLimitReached
	}

	if _, err := s.interaction.activeService(in.AIServiceID); err != nil {
		return nil, err
	}

	agent := &models.CustomAgent{
		UserID:        owner.ID,
		AIServiceID:   in.AIServiceID,
		Name:          in.Name,
		Description:   in.Description,
		Instructions:  in.Instructions,
		KnowledgeBase: in.KnowledgeBase,
		Parameters:    in.Parameters,
		IsActive:      true,
	}
	if in.IsActive != nil {
		agent.IsActive = *in.IsActive
	}
	if in.IsPublic != nil {
		agent.IsPublic = *in.IsPublic
	}

	if err := s.db.Create(agent).Error; err != nil {
		return nil, err
	}
	return agent, nil
}

// Get loads an agent the requester may see: their own, or a public one.
func (s *AgentService) Get(requesterID, agentID uuid.UUID) (*models.CustomAgent, error) {
	agent, err := s.load(agentID)
	if err != nil {
		return nil, err
	}
	if !agent.OwnedBy(requesterID) && !agent.IsPublic {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

// Update modifies an owned agent. Non-owners get ErrAgentNotOwned even for
// public agents.
func (s *AgentService) Update(requesterID, agentID uuid.UUID, in *AgentInput) (*models.CustomAgent, error) {
	agent, err := s.load(agentID)
	if err != nil {
		return nil, err
	}
	if !agent.OwnedBy(requesterID) {
		return nil, ErrAgentNotOwned
	}

	updates := map[string]interface{}{}
	if in.Name != "" {
		updates["name"] = in.Name
	}
	if in.Description != "" {
		updates["description"] = in.Description
	}
	if in.Instructions != "" {
		updates["instructions"] = in.Instructions
	}
	if in.KnowledgeBase != "" {
		updates["knowledge_base"] = in.KnowledgeBase
	}
	if in.Parameters != nil {
		updates["parameters"] = in.Parameters
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.IsPublic != nil {
		updates["is_public"] = *in.IsPublic
	}
	if in.AIServiceID != uuid.Nil {
		if _, err := s.interaction.activeService(in.AIServiceID); err != nil {
			return nil, err
		}
		updates["ai_service_id"] = in.AIServiceID
	}

	if len(updates) > 0 {
		if err := s.db.Model(agent).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.load(agentID)
}

// Delete soft-deletes an owned agent. Past interactions keep referencing it.
func (s *AgentService) Delete(requesterID, agentID uuid.UUID) error {
	agent, err := s.load(agentID)
	if err != nil {
		return err
	}
	if !agent.OwnedBy(requesterID) {
		return ErrAgentNotOwned
	}
	return s.db.Delete(agent).Error
}

// ListOwn lists the requester's agents, newest first.
func (s *AgentService) ListOwn(requesterID uuid.UUID) ([]models.CustomAgent, error) {
	var agents []models.CustomAgent
	err := s.db.Preload("AIService").
		Where("user_id = ?", requesterID).
		Order("created_at DESC").
		Find(&agents).Error
	return agents, err
}

// ListPublic lists the public active agents of all users, most used first.
func (s *AgentService) ListPublic(limit, offset int) ([]models.CustomAgent, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	base := s.db.Model(&models.CustomAgent{}).Where("is_public = ? AND is_active = ?", true, true)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var agents []models.CustomAgent
	err := s.db.Preload("AIService").
		Where("is_public = ? AND is_active = ?", true, true).
		Order("usage_count DESC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&agents).Error
	return agents, total, err
}

// Interact runs a prompt through an agent: the composed prompt goes to the
// provider, the raw user input is what gets recorded. The agent's usage
// counter moves only on success.
func (s *AgentService) Interact(ctx context.Context, user *models.User, agentID uuid.UUID, userInput string) (*models.AIInteraction, error) {
	agent, err := s.load(agentID)
	if err != nil {
		return nil, err
	}
	if !agent.CanBeUsedBy(user.ID) {
		return nil, ErrAgentForbidden
	}

	service, err := s.interaction.activeService(agent.AIServiceID)
	if err != nil {
		return nil, err
	}
	if err := s.interaction.gate(user.ID, service); err != nil {
		return nil, err
	}

	interaction, err := s.interaction.dispatch(ctx, user, service, userInput, agent.BuildPrompt(userInput), &agent.ID)
	if err != nil {
		return interaction, err
	}

	if err := s.db.Model(&models.CustomAgent{}).
		Where("id = ?", agent.ID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
		return interaction, err
	}
	return interaction, nil
}

func (s *AgentService) load(agentID uuid.UUID) (*models.CustomAgent, error) {
	var agent models.CustomAgent
	if err := s.db.First(&agent, "id = ?", agentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return &agent, nil
}
