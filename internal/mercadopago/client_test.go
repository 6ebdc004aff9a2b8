package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genaiplatform/backend/internal/config"
)

func newTestClient(srvURL string) *Client {
	return NewClient(&config.Config{
		MercadoPagoAccessToken: "mp-token",
		MercadoPagoBaseURL:     srvURL,
		ProviderTimeout:        5 * time.Second,
	})
}

func TestCreatePreference(t *testing.T) {
	var gotAuth string
	var gotReq PreferenceRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, `{"id": "pref-7", "init_point": "https://mp.test/init/pref-7"}`)
	}))
	defer srv.Close()

	pref, err := newTestClient(srv.URL).CreatePreference(context.Background(), &PreferenceRequest{
		Items:             []Item{{Title: "Pro", Quantity: 1, CurrencyID: "ARS", UnitPrice: 29.99}},
		ExternalReference: "payment-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "pref-7", pref.ID)
	assert.Equal(t, "https://mp.test/init/pref-7", pref.InitPoint)
	assert.Equal(t, "Bearer mp-token", gotAuth)
	assert.Equal(t, "payment-1", gotReq.ExternalReference)
}

func TestGetPaymentReturnsTypedAndRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/555", r.URL.Path)
		fmt.Fprint(w, `{
			"id": 555,
			"status": "approved",
			"external_reference": "payment-1",
			"date_approved": "2026-08-30T12:00:00Z",
			"payer": {"id": "p1", "email": "p@example.com"},
			"transaction_amount": 29.99
		}`)
	}))
	defer srv.Close()

	payment, raw, err := newTestClient(srv.URL).GetPayment(context.Background(), "555")
	require.NoError(t, err)

	assert.Equal(t, int64(555), payment.ID)
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, "payment-1", payment.ExternalReference)
	require.NotNil(t, payment.DateApproved)

	// fields the typed view does not model survive in the raw document
	assert.Equal(t, 29.99, raw["transaction_amount"])
}

func TestGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "invalid token"}`)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, _, err := client.GetPayment(context.Background(), "555")
	assert.ErrorIs(t, err, ErrGateway)

	_, err = client.CreatePreference(context.Background(), &PreferenceRequest{})
	assert.ErrorIs(t, err, ErrGateway)
	assert.Contains(t, err.Error(), "401")
}
