package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genaiplatform/backend/internal/services"
)

type PlanHandler struct {
	services *services.Container
}

func NewPlanHandler(s *services.Container) *PlanHandler {
	return &PlanHandler{services: s}
}

// List shows the active plans a user can subscribe to.
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.services.Plan.ListActive()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
