package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/services"
)

type AIHandler struct {
	services *services.Container
}

func NewAIHandler(s *services.Container) *AIHandler {
	return &AIHandler{services: s}
}

// Services lists the active AI services the user's plan grants.
func (h *AIHandler) Services(c *gin.Context) {
	user := auth.CurrentUser(c)

	list, err := h.services.Entitlement.AvailableServices(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": list})
}

type askRequest struct {
	AIServiceID string `json:"ai_service_id" binding:"required,uuid"`
	Prompt      string `json:"prompt" binding:"required,min=5,max=4000"`
}

// Ask runs a direct prompt against a service. When the provider call
// itself failed the interaction row comes back with 502 so the client can
// still show the audit entry.
func (h *AIHandler) Ask(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	serviceID, err := uuid.Parse(req.AIServiceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ai_service_id"})
		return
	}

	interaction, err := h.services.Interaction.Ask(c.Request.Context(), user, serviceID, req.Prompt)
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

func (h *AIHandler) History(c *gin.Context) {
	user := auth.CurrentUser(c)

	var page pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interactions, total, err := h.services.Interaction.History(user.ID, page.Limit, page.Offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interactions": interactions, "total": total})
}

func (h *AIHandler) Get(c *gin.Context) {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid interaction ID"})
		return
	}

	interaction, err := h.services.Interaction.Get(user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interaction": interaction})
}
