package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/models"
	"github.com/genaiplatform/backend/internal/services"
)

type AgentHandler struct {
	services *services.Container
}

func NewAgentHandler(s *services.Container) *AgentHandler {
	return &AgentHandler{services: s}
}

type agentRequest struct {
	Name          string         `json:"name" binding:"required,min=2,max=255"`
	Description   string         `json:"description" binding:"max=1000"`
	AIServiceID   string         `json:"ai_service_id" binding:"required,uuid"`
	Instructions  string         `json:"instructions" binding:"required,min=10,max=4000"`
	KnowledgeBase string         `json:"knowledge_base" binding:"max=10000"`
	Parameters    models.JSONMap `json:"parameters"`
	IsActive      *bool          `json:"is_active"`
	IsPublic      *bool          `json:"is_public"`
}

func (r *agentRequest) toInput() (*services.AgentInput, error) {
	serviceID, err := uuid.Parse(r.AIServiceID)
	if err != nil {
		return nil, err
	}
	return &services.AgentInput{
		Name:          r.Name,
		Description:   r.Description,
		AIServiceID:   serviceID,
		Instructions:  r.Instructions,
		KnowledgeBase: r.KnowledgeBase,
		Parameters:    r.Parameters,
		IsActive:      r.IsActive,
		IsPublic:      r.IsPublic,
	}, nil
}

func (h *AgentHandler) Create(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ai_service_id"})
		return
	}

	agent, err := h.services.Agent.Create(user, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"agent": agent})
}

func (h *AgentHandler) ListOwn(c *gin.Context) {
	user := auth.CurrentUser(c)

	agents, err := h.services.Agent.ListOwn(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *AgentHandler) ListPublic(c *gin.Context) {
	var page pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agents, total, err := h.services.Agent.ListPublic(page.Limit, page.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents, "total": total})
}

func (h *AgentHandler) Get(c *gin.Context) {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent ID"})
		return
	}

	agent, err := h.services.Agent.Get(user.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent": agent})
}

type agentUpdateRequest struct {
	Name          string         `json:"name" binding:"omitempty,min=2,max=255"`
	Description   string         `json:"description" binding:"max=1000"`
	AIServiceID   string         `json:"ai_service_id" binding:"omitempty,uuid"`
	Instructions  string         `json:"instructions" binding:"omitempty,min=10,max=4000"`
	KnowledgeBase string         `json:"knowledge_base" binding:"max=10000"`
	Parameters    models.JSONMap `json:"parameters"`
	IsActive      *bool          `json:"is_active"`
	IsPublic      *bool          `json:"is_public"`
}

func (h *AgentHandler) Update(c *gin.Context) {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent ID"})
		return
	}

	var req agentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := &services.AgentInput{
		Name:          req.Name,
		Description:   req.Description,
		Instructions:  req.Instructions,
		KnowledgeBase: req.KnowledgeBase,
		Parameters:    req.Parameters,
		IsActive:      req.IsActive,
		IsPublic:      req.IsPublic,
	}
	if req.AIServiceID != "" {
		serviceID, err := uuid.Parse(req.AIServiceID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ai_service_id"})
			return
		}
		in.AIServiceID = serviceID
	}

	agent, err := h.services.Agent.Update(user.ID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent": agent})
}

func (h *AgentHandler) Delete(c *gin.Context) {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent ID"})
		return
	}

	if err := h.services.Agent.Delete(user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "agent deleted"})
}

type interactRequest struct {
	Input string `json:"input" binding:"required,min=5,max=1000"`
}

func (h *AgentHandler) Interact(c *gin.Context) {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent ID"})
		return
	}

	var req interactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interaction, err := h.services.Agent.Interact(c.Request.Context(), user, id, req.Input)
	if err != nil {
		if interaction != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":       "AI request failed",
				"interaction": interaction,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interaction": interaction})
}
