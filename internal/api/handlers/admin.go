package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/genaiplatform/backend/internal/models"
	"github.com/genaiplatform/backend/internal/services"
)

// AdminHandler serves the administrator surface: platform stats and the
// plan and AI service catalogs.
type AdminHandler struct {
	services *services.Container
}

func NewAdminHandler(s *services.Container) *AdminHandler {
	return &AdminHandler{services: s}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.services.Dashboard.AdminStats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListPlans(c *gin.Context) {
	plans, err := h.services.Plan.ListAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

type planRequest struct {
	Name              string  `json:"name" binding:"required,min=2,max=255"`
	Description       string  `json:"description"`
	Price             float64 `json:"price" binding:"required,gt=0"`
	BillingPeriod     string  `json:"billing_period" binding:"required,oneof=monthly quarterly yearly"`
	AIRequestsLimit   int     `json:"ai_requests_limit"`
	CustomAgentsLimit int     `json:"custom_agents_limit"`
	CanUseChatGPT     bool    `json:"can_use_chatgpt"`
	CanUseGemini      bool    `json:"can_use_gemini"`
	CanUseDeepSeek    bool    `json:"can_use_deepseek"`
	IsActive          *bool   `json:"is_active"`
}

func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := &models.SubscriptionPlan{
		Name:              req.Name,
		Description:       req.Description,
		Price:             req.Price,
		BillingPeriod:     models.BillingPeriod(req.BillingPeriod),
		AIRequestsLimit:   req.AIRequestsLimit,
		CustomAgentsLimit: req.CustomAgentsLimit,
		CanUseChatGPT:     req.CanUseChatGPT,
		CanUseGemini:      req.CanUseGemini,
		CanUseDeepSeek:    req.CanUseDeepSeek,
		IsActive:          true,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := h.services.Plan.Create(plan); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan ID"})
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	for _, field := range []string{
		"name", "description", "price", "billing_period",
		"ai_requests_limit", "custom_agents_limit",
		"can_use_chatgpt", "can_use_gemini", "can_use_deepseek", "is_active",
	} {
		if v, ok := req[field]; ok {
			updates[field] = v
		}
	}

	plan, err := h.services.Plan.Update(id, updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

func (h *AdminHandler) DeletePlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan ID"})
		return
	}

	if err := h.services.Plan.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "plan deleted"})
}

func (h *AdminHandler) ListServices(c *gin.Context) {
	list, err := h.services.Catalog.ListAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": list})
}

type serviceRequest struct {
	Name           string         `json:"name" binding:"required,min=2,max=255"`
	Provider       string         `json:"provider" binding:"required,oneof=chatgpt gemini deepseek"`
	Model          string         `json:"model" binding:"required,min=1,max=100"`
	Description    string         `json:"description"`
	CostPerRequest float64        `json:"cost_per_request" binding:"gte=0"`
	Parameters     models.JSONMap `json:"parameters"`
	IsActive       *bool          `json:"is_active"`
}

func (h *AdminHandler) CreateService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := &models.AIService{
		Name:           req.Name,
		Provider:       req.Provider,
		Model:          req.Model,
		Description:    req.Description,
		CostPerRequest: req.CostPerRequest,
		Parameters:     req.Parameters,
		IsActive:       true,
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}

	if err := h.services.Catalog.Create(service); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"service": service})
}

func (h *AdminHandler) UpdateService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service ID"})
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	for _, field := range []string{
		"name", "provider", "model", "description",
		"cost_per_request", "parameters", "is_active",
	} {
		if v, ok := req[field]; ok {
			updates[field] = v
		}
	}

	service, err := h.services.Catalog.Update(id, updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": service})
}
