package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/config"
	"github.com/genaiplatform/backend/internal/locks"
	"github.com/genaiplatform/backend/internal/logger"
	"github.com/genaiplatform/backend/internal/mercadopago"
	"github.com/genaiplatform/backend/internal/models"
	"github.com/genaiplatform/backend/internal/websocket"
)

var (
	ErrPlanNotFound     = errors.New("subscription plan not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrPaymentForbidden = errors.New("payment belongs to another user")
)

// PaymentService owns the payment lifecycle: checkout creation, the
// webhook-driven state machine, and the browser return flows. All
// transitions are pending-guarded so webhook redelivery and concurrent
// return hits collapse into one effective transition.
type PaymentService struct {
	db      *gorm.DB
	cfg     *config.Config
	gateway *mercadopago.Client
	hub     *websocket.Hub
	locks   *locks.Manager
	now     func() time.Time
}

func NewPaymentService(db *gorm.DB, cfg *config.Config, gateway *mercadopago.Client, hub *websocket.Hub, lockManager *locks.Manager) *PaymentService {
	return &PaymentService{db: db, cfg: cfg, gateway: gateway, hub: hub, locks: lockManager, now: time.Now}
}

// Checkout creates a pending payment for the plan and a gateway checkout
// preference pointing back at it. The subscription window is computed now,
// from the plan's billing period. On gateway failure the pending row is
// removed so the user can retry cleanly.
func (s *PaymentService) Checkout(ctx context.Context, user *models.User, planID uuid.UUID) (*models.Payment, string, error) {
	var plan models.SubscriptionPlan
	if err := s.db.Where("id = ? AND is_active = ?", planID, true).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrPlanNotFound
		}
		return nil, "", err
	}

	start := s.now()
	payment := &models.Payment{
		UserID:               user.ID,
		SubscriptionPlanID:   plan.ID,
		Amount:               plan.Price,
		PaymentMethod:        "mercadopago",
		Status:               models.PaymentPending,
		SubscriptionStartsAt: start,
		SubscriptionEndsAt:   models.SubscriptionEndDate(start, plan.BillingPeriod),
	}
	if err := s.db.Create(payment).Error; err != nil {
		return nil, "", err
	}

	pref, err := s.gateway.CreatePreference(ctx, &mercadopago.PreferenceRequest{
		Items: []mercadopago.Item{{
			Title:       plan.Name,
			Description: plan.Description,
			Quantity:    1,
			CurrencyID:  s.cfg.MercadoPagoCurrency,
			UnitPrice:   plan.Price,
		}},
		Payer: mercadopago.Payer{
			Name:  user.Name,
			Email: user.Email,
		},
		BackURLs: mercadopago.BackURLs{
			Success: s.cfg.AppBaseURL + "/api/v1/payments/return/success",
			Failure: s.cfg.AppBaseURL + "/api/v1/payments/return/failure",
			Pending: s.cfg.AppBaseURL + "/api/v1/payments/return/pending",
		},
		AutoReturn:          "approved",
		NotificationURL:     s.cfg.AppBaseURL + "/api/v1/payments/webhook",
		ExternalReference:   payment.ID.String(),
		StatementDescriptor: "GENAI PLATFORM",
	})
	if err != nil {
		s.db.Delete(payment)
		return nil, "", fmt.Errorf("create checkout preference: %w", err)
	}

	if err := s.mergeData(payment, models.JSONMap{"preference_id": pref.ID}); err != nil {
		return nil, "", err
	}

	logger.Info().
		Str("payment_id", payment.ID.String()).
		Str("user_id", user.ID.String()).
		Str("plan_id", plan.ID.String()).
		Float64("amount", plan.Price).
		Msg("checkout created")
	return payment, pref.InitPoint, nil
}

// HandleWebhook processes a gateway notification. Only "payment" events
// matter; the status always comes from a fresh gateway lookup, never from
// the notification body. Unknown references and redeliveries are no-ops.
func (s *PaymentService) HandleWebhook(ctx context.Context, notifType, dataID string) error {
	if notifType != "payment" || dataID == "" {
		return nil
	}

	gwPayment, raw, err := s.gateway.GetPayment(ctx, dataID)
	if err != nil {
		return err
	}

	paymentID, err := uuid.Parse(gwPayment.ExternalReference)
	if err != nil {
		logger.Warn().
			Str("gateway_payment_id", dataID).
			Str("external_reference", gwPayment.ExternalReference).
			Msg("webhook for unknown payment reference")
		return nil
	}

	// serialize concurrent deliveries for the same payment; the status
	// guard still protects correctness if the lock cannot be taken
	lock, err := s.locks.Acquire(ctx, "payment:"+paymentID.String(), 30*time.Second)
	if err == nil {
		defer lock.Release(ctx)
	} else if !errors.Is(err, locks.ErrLockNotAcquired) {
		logger.Warn().Err(err).Msg("payment lock unavailable")
	}

	return s.applyGatewayStatus(paymentID, gwPayment, raw, "webhook_payment")
}

// applyGatewayStatus routes a freshly fetched gateway payment through the
// state machine. dataKey names where the raw gateway document lands in
// payment_data.
func (s *PaymentService) applyGatewayStatus(paymentID uuid.UUID, gwPayment *mercadopago.Payment, raw map[string]interface{}, dataKey string) error {
	switch gwPayment.Status {
	case "approved":
		paidAt := s.now()
		if gwPayment.DateApproved != nil {
			paidAt = *gwPayment.DateApproved
		}
		return s.approve(paymentID, approveDetails{
			gatewayPaymentID: strconv.FormatInt(gwPayment.ID, 10),
			paidAt:           paidAt,
			payerID:          gwPayment.Payer.ID,
			payerEmail:       gwPayment.Payer.Email,
			data:             models.JSONMap{dataKey: raw},
		})
	case "rejected", "cancelled":
		return s.reject(paymentID, models.JSONMap{dataKey: raw})
	default:
		// pending and in_process wait for the next notification
		return nil
	}
}

// ReturnQuery is what the gateway appends to the back URL when the payer's
// browser comes back.
type ReturnQuery struct {
	PaymentID string
	Raw       map[string]string
}

// ApplyReturn handles the payer's browser landing back from the gateway.
// The redirect carries no credentials and its query string is untrusted, so
// the query is only archived; any transition comes from a fresh gateway
// lookup of the referenced payment, exactly like the webhook path.
func (s *PaymentService) ApplyReturn(ctx context.Context, paymentID uuid.UUID, outcome string, q *ReturnQuery) error {
	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	extra := models.JSONMap{}
	for k, v := range q.Raw {
		extra[k] = v
	}
	if err := s.mergeData(&payment, models.JSONMap{"return_" + outcome: extra}); err != nil {
		return err
	}

	// no gateway payment id means the payer backed out before paying; the
	// row stays pending until the gateway says otherwise
	if q.PaymentID == "" {
		return nil
	}

	gwPayment, raw, err := s.gateway.GetPayment(ctx, q.PaymentID)
	if err != nil {
		return err
	}
	if gwPayment.ExternalReference != paymentID.String() {
		logger.Warn().
			Str("payment_id", paymentID.String()).
			Str("external_reference", gwPayment.ExternalReference).
			Msg("return query references a different payment")
		return nil
	}

	return s.applyGatewayStatus(paymentID, gwPayment, raw, "return_payment")
}

type approveDetails struct {
	gatewayPaymentID string
	paidAt           time.Time
	payerID          string
	payerEmail       string
	data             models.JSONMap
}

// approve moves a pending payment to approved. The status guard on the
// UPDATE makes redelivered webhooks and racing return hits silent no-ops;
// payment_data still accumulates from the first effective transition only.
func (s *PaymentService) approve(paymentID uuid.UUID, d approveDetails) error {
	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}
	if payment.IsTerminal() {
		return nil
	}

	updates := map[string]interface{}{
		"status":       models.PaymentApproved,
		"paid_at":      d.paidAt,
		"payment_data": payment.PaymentData.Merge(d.data),
	}
	if d.gatewayPaymentID != "" {
		updates["gateway_payment_id"] = d.gatewayPaymentID
	}
	if d.payerID != "" {
		updates["payer_id"] = d.payerID
	}
	if d.payerEmail != "" {
		updates["payer_email"] = d.payerEmail
	}

	res := s.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	logger.Info().
		Str("payment_id", paymentID.String()).
		Str("user_id", payment.UserID.String()).
		Msg("payment approved")

	s.hub.BroadcastToUser(payment.UserID.String(), "payment:approved", map[string]interface{}{
		"payment_id":           paymentID,
		"subscription_ends_at": payment.SubscriptionEndsAt,
	})
	return nil
}

// reject moves a pending payment to rejected under the same guard.
func (s *PaymentService) reject(paymentID uuid.UUID, data models.JSONMap) error {
	var payment models.Payment
	if err := s.db.First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}
	if payment.IsTerminal() {
		return nil
	}

	res := s.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":       models.PaymentRejected,
			"payment_data": payment.PaymentData.Merge(data),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	logger.Info().
		Str("payment_id", paymentID.String()).
		Str("user_id", payment.UserID.String()).
		Msg("payment rejected")

	s.hub.BroadcastToUser(payment.UserID.String(), "payment:rejected", map[string]interface{}{
		"payment_id": paymentID,
	})
	return nil
}

// mergeData folds extra keys into payment_data without dropping existing
// ones.
func (s *PaymentService) mergeData(payment *models.Payment, extra models.JSONMap) error {
	merged := payment.PaymentData.Merge(extra)
	if err := s.db.Model(payment).Update("payment_data", merged).Error; err != nil {
		return err
	}
	payment.PaymentData = merged
	return nil
}

// Get loads one payment; non-admins only see their own.
func (s *PaymentService) Get(requester *models.User, paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Preload("SubscriptionPlan").First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.UserID != requester.ID && !requester.IsAdmin {
		return nil, ErrPaymentForbidden
	}
	return &payment, nil
}

// ListForUser lists a user's payments, newest first.
func (s *PaymentService) ListForUser(userID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.Preload("SubscriptionPlan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// ExpiringSoon lists approved payments whose coverage window closes within
// the given duration. Used by the scheduler to notify users.
func (s *PaymentService) ExpiringSoon(within time.Duration) ([]models.Payment, error) {
	now := s.now()
	var payments []models.Payment
	err := s.db.Preload("SubscriptionPlan").
		Where("status = ? AND subscription_ends_at > ? AND subscription_ends_at <= ?",
			models.PaymentApproved, now, now.Add(within)).
		Find(&payments).Error
	return payments, err
}

// StalePending lists pending payments older than the given age. They stay
// pending forever unless the gateway says otherwise; the scheduler only
// reports them.
func (s *PaymentService) StalePending(olderThan time.Duration) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.Where("status = ? AND created_at < ?", models.PaymentPending, s.now().Add(-olderThan)).
		Find(&payments).Error
	return payments, err
}
