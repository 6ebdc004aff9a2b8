package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/services"
)

type DashboardHandler struct {
	services *services.Container
}

func NewDashboardHandler(s *services.Container) *DashboardHandler {
	return &DashboardHandler{services: s}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	user := auth.CurrentUser(c)

	stats, err := h.services.Dashboard.UserStats(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
