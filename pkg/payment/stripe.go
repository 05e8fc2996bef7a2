package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/storefront/pkg/config"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// Stripe is the Provider backed by the Stripe PaymentIntents API.
type Stripe struct {
	api       *client.API
	returnURL string
	logger    *zap.Logger
}

// New returns a Stripe provider, or Disabled when no secret key is set.
func New(cfg *config.PaymentConfig, logger *zap.Logger) Provider {
	if cfg.SecretKey == "" {
		logger.Warn("payment.secret_key is empty, card payments disabled")
		return Disabled{}
	}
	return NewStripe(client.New(cfg.SecretKey, nil), cfg.ReturnURL, logger)
}

// NewStripe wraps an already configured Stripe client.
func NewStripe(api *client.API, returnURL string, logger *zap.Logger) *Stripe {
	return &Stripe{api: api, returnURL: returnURL, logger: logger}
}

func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, stripeError("create payment intent", err)
	}
	return toIntent(pi), nil
}

func (s *Stripe) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, stripeError("get payment intent", err)
	}
	return toIntent(pi), nil
}

func (s *Stripe) Confirm(ctx context.Context, id, paymentMethod string) (*Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	if s.returnURL != "" {
		params.ReturnURL = stripe.String(s.returnURL)
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		return nil, stripeError("confirm payment intent", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		s.logger.Info("payment intent not settled",
			zap.String("intent_id", pi.ID),
			zap.String("status", string(pi.Status)))
		return toIntent(pi), fmt.Errorf("%w: intent status %s", ErrDeclined, pi.Status)
	}
	return toIntent(pi), nil
}

// Cancel voids the intent so a later authentication cannot capture it.
func (s *Stripe) Cancel(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx

	if _, err := s.api.PaymentIntents.Cancel(id, params); err != nil {
		return stripeError("cancel payment intent", err)
	}
	return nil
}

func (s *Stripe) Refund(ctx context.Context, id string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(id)}
	params.Context = ctx

	if _, err := s.api.Refunds.New(params); err != nil {
		return stripeError("refund payment intent", err)
	}
	return nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
	}
}

// stripeError maps card errors onto ErrDeclined and wraps everything else.
func stripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		return fmt.Errorf("%w: %s", ErrDeclined, stripeErr.Msg)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
