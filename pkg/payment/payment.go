// Package payment wraps the card payment provider used at checkout.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrCardPaymentsDisabled is returned when no provider key is configured.
	ErrCardPaymentsDisabled = errors.New("card payments are not configured")
	// ErrDeclined is returned when the provider did not settle the charge.
	ErrDeclined = errors.New("payment declined")
)

const StatusSucceeded = "succeeded"

// Intent is the provider-neutral view of a payment intent.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Succeeded reports whether the charge settled.
func (i *Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

// Provider creates, confirms, cancels and refunds card charges. Amounts are
// in minor units of the currency.
type Provider interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	// Confirm returns ErrDeclined unless the intent settled. The returned
	// intent may still be live (e.g. awaiting customer authentication).
	Confirm(ctx context.Context, id, paymentMethod string) (*Intent, error)
	// Cancel voids an intent that has not been captured.
	Cancel(ctx context.Context, id string) error
	Refund(ctx context.Context, id string) error
}

// Disabled is the Provider used when card payments are switched off.
type Disabled struct{}

func (Disabled) CreateIntent(context.Context, int64, string, map[string]string) (*Intent, error) {
	return nil, ErrCardPaymentsDisabled
}

func (Disabled) GetIntent(context.Context, string) (*Intent, error) {
	return nil, ErrCardPaymentsDisabled
}

func (Disabled) Confirm(context.Context, string, string) (*Intent, error) {
	return nil, ErrCardPaymentsDisabled
}

func (Disabled) Cancel(context.Context, string) error {
	return ErrCardPaymentsDisabled
}

func (Disabled) Refund(context.Context, string) error {
	return ErrCardPaymentsDisabled
}
