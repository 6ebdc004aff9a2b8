package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/genaiplatform/backend/internal/config"
)

// ErrGateway wraps any failure talking to MercadoPago: network errors,
// non-2xx statuses, undecodable bodies.
var ErrGateway = errors.New("mercadopago request failed")

// Client is a thin HTTP client for the two MercadoPago endpoints the
// platform uses: checkout preference creation and payment detail lookup.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		accessToken: cfg.MercadoPagoAccessToken,
		baseURL:     strings.TrimRight(cfg.MercadoPagoBaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.ProviderTimeout},
	}
}

type Item struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
	CurrencyID  string  `json:"currency_id"`
	UnitPrice   float64 `json:"unit_price"`
}

type Payer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	ID    string `json:"id,omitempty"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest describes a checkout to be created on the gateway.
type PreferenceRequest struct {
	Items               []Item   `json:"items"`
	Payer               Payer    `json:"payer"`
	BackURLs            BackURLs `json:"back_urls"`
	AutoReturn          string   `json:"auto_return,omitempty"`
	NotificationURL     string   `json:"notification_url,omitempty"`
	ExternalReference   string   `json:"external_reference"`
	StatementDescriptor string   `json:"statement_descriptor,omitempty"`
}

// Preference is the created checkout; InitPoint is where the payer's
// browser is sent.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// Payment is the gateway's view of a payment, fetched by id after a
// webhook notification. ExternalReference carries our payment id.
type Payment struct {
	ID                int64      `json:"id"`
	Status            string     `json:"status"`
	ExternalReference string     `json:"external_reference"`
	DateApproved      *time.Time `json:"date_approved"`
	Payer             Payer      `json:"payer"`
}

// CreatePreference creates a checkout preference.
func (c *Client) CreatePreference(ctx context.Context, req *PreferenceRequest) (*Preference, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal preference: %v", ErrGateway, err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var pref Preference
	if err := json.Unmarshal(raw, &pref); err != nil {
		return nil, fmt.Errorf("%w: decode preference: %v", ErrGateway, err)
	}
	return &pref, nil
}

// GetPayment fetches payment details by the gateway's payment id. Webhook
// notifications only carry the id; the status must come from this lookup,
// never from the notification body. The raw document is returned alongside
// the typed view so callers can keep it as an audit trail.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, map[string]interface{}, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, nil, err
	}

	var payment Payment
	if err := json.Unmarshal(raw, &payment); err != nil {
		return nil, nil, fmt.Errorf("%w: decode payment: %v", ErrGateway, err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: decode payment: %v", ErrGateway, err)
	}
	return &payment, doc, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrGateway, resp.StatusCode, truncateBody(rawBody))
	}
	return rawBody, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
