package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/logger"
	"github.com/genaiplatform/backend/internal/services"
)

type PaymentHandler struct {
	services *services.Container
}

func NewPaymentHandler(s *services.Container) *PaymentHandler {
	return &PaymentHandler{services: s}
}

type checkoutRequest struct {
	PlanID string `json:"plan_id" binding:"required,uuid"`
}

func (h *PaymentHandler) Checkout(c *gin.Context) {
	user := auth.CurrentUser(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan_id"})
		return
	}

	payment, initPoint, err := h.services.Payment.Checkout(c.Request.Context(), user, planID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment":      payment,
		"checkout_url": initPoint,
	})
}

func (h *PaymentHandler) List(c *gin.Context) {
	user := auth.CurrentUser(c)

	payments, err := h.services.Payment.ListForUser(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *PaymentHandler) Get(c *gin.Context) {
	user := auth.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment ID"})
		return
	}

	payment, err := h.services.Payment.Get(user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// Return handles the payer's browser landing back from the gateway. The
// gateway appends our payment id as external_reference; the redirect
// carries no credentials, so the response stays minimal and the transition
// is verified against the gateway, never the query string.
func (h *PaymentHandler) Return(c *gin.Context) {
	outcome := c.Param("outcome")
	if outcome != "success" && outcome != "failure" && outcome != "pending" {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown return outcome"})
		return
	}

	paymentID, err := uuid.Parse(c.Query("external_reference"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing external_reference"})
		return
	}

	raw := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}

	err = h.services.Payment.ApplyReturn(c.Request.Context(), paymentID, outcome, &services.ReturnQuery{
		PaymentID: c.Query("payment_id"),
		Raw:       raw,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_id": paymentID, "outcome": outcome})
}

type webhookRequest struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Webhook receives gateway notifications. It always answers 200 for
// well-formed requests so the gateway stops retrying; failures to reach
// the gateway back come out as 502 and will be redelivered.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed notification"})
		return
	}

	if err := h.services.Payment.HandleWebhook(c.Request.Context(), req.Type, req.Data.ID); err != nil {
		logger.Error().Err(err).Str("notification_id", req.Data.ID).Msg("webhook processing failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "notification processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
