package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/services"
)

// respondError maps service errors onto HTTP statuses so handlers stay
// uniform.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoActiveSubscription):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "active subscription required"})
	case errors.Is(err, services.ErrProviderNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "your plan does not include this provider"})
	case errors.Is(err, services.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "monthly AI request limit reached"})
	case errors.Is(err, services.ErrAgentLimitReached):
		c.JSON(http.StatusForbidden, gin.H{"error": "custom agent limit reached"})
	case errors.Is(err, services.ErrAgentForbidden), errors.Is(err, services.ErrAgentNotOwned),
		errors.Is(err, services.ErrPaymentForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrServiceNotFound), errors.Is(err, services.ErrAgentNotFound),
		errors.Is(err, services.ErrPlanNotFound), errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrInteractionMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPlanInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type pagination struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}
