package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

func newTestStripe(t *testing.T, handler http.HandlerFunc) *Stripe {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	api := client.New("sk_test_123", &stripe.Backends{API: backend, Uploads: backend})
	return NewStripe(api, "", zap.NewNop())
}

func TestStripeCreateIntent(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/payment_intents"))
		assert.Equal(t, "4200", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "s1", r.PostForm.Get("metadata[session]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":4200,"currency":"usd","client_secret":"pi_1_secret","status":"requires_payment_method"}`))
	})

	intent, err := s.CreateIntent(context.Background(), 4200, "USD", map[string]string{"session": "s1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
	assert.EqualValues(t, 4200, intent.Amount)
	assert.False(t, intent.Succeeded())
}

func TestStripeConfirmNotSucceeded(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/payment_intents/pi_1/confirm"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":4200,"currency":"usd","status":"requires_action"}`))
	})

	intent, err := s.Confirm(context.Background(), "pi_1", "pm_card_visa")
	assert.ErrorIs(t, err, ErrDeclined)
	require.NotNil(t, intent)
	assert.Equal(t, "requires_action", intent.Status)
}

func TestStripeCardErrorIsDeclined(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	})

	_, err := s.Confirm(context.Background(), "pi_1", "pm_card_chargeDeclined")
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Contains(t, err.Error(), "Your card was declined.")
}

func TestStripeRefund(t *testing.T) {
	var called bool
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		called = true
		assert.True(t, strings.HasSuffix(r.URL.Path, "/refunds"))
		assert.Equal(t, "pi_1", r.PostForm.Get("payment_intent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"re_1","object":"refund","payment_intent":"pi_1","status":"succeeded"}`))
	})

	require.NoError(t, s.Refund(context.Background(), "pi_1"))
	assert.True(t, called)
}

func TestStripeCancel(t *testing.T) {
	var called bool
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/payment_intents/pi_1/cancel"))
		assert.Equal(t, "abandoned", r.PostForm.Get("cancellation_reason"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":4200,"currency":"usd","status":"canceled"}`))
	})

	require.NoError(t, s.Cancel(context.Background(), "pi_1"))
	assert.True(t, called)
}

func TestStripeCancelError(t *testing.T) {
	s := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"payment_intent_unexpected_state","message":"This PaymentIntent's status is succeeded."}}`))
	})

	err := s.Cancel(context.Background(), "pi_1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDeclined))
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	p := New(&config.PaymentConfig{}, zap.NewNop())
	_, err := p.CreateIntent(context.Background(), 100, "usd", nil)
	assert.True(t, errors.Is(err, ErrCardPaymentsDisabled))
	assert.ErrorIs(t, p.Cancel(context.Background(), "pi_1"), ErrCardPaymentsDisabled)
}
