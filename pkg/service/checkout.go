package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutForm is the billing form plus, for card payments, the provider
// intent and the payment-method token created by the client.
type CheckoutForm struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	City            string `json:"city"`
	PostalCode      string `json:"postal_code"`
	Country         string `json:"country"`
	PaymentMethod   string `json:"payment_method"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

func (f *CheckoutForm) normalize() {
	for _, field := range []*string{
		&f.FullName, &f.Email, &f.Phone, &f.Address, &f.City, &f.PostalCode,
		&f.Country, &f.PaymentMethod, &f.PaymentIntentID, &f.PaymentMethodID,
	} {
		*field = strings.TrimSpace(*field)
	}
}

// Validate checks the billing fields and the payment method.
func (f *CheckoutForm) Validate() error {
	var v validator
	v.required("full_name", f.FullName)
	v.email("email", f.Email)
	v.required("phone", f.Phone)
	v.required("address", f.Address)
	v.required("city", f.City)
	v.required("postal_code", f.PostalCode)
	v.required("country", f.Country)

	switch f.PaymentMethod {
	case models.PaymentMethodCash:
	case models.PaymentMethodCard:
		v.required("payment_intent_id", f.PaymentIntentID)
		v.required("payment_method_id", f.PaymentMethodID)
	case "":
		v.fail("payment_method", "is required")
	default:
		v.fail("payment_method", "must be creditCard or cash")
	}
	return v.err()
}

// Prefill is the subset of the checkout form known from the session identity.
type Prefill struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CheckoutResult is a placed order. Replayed is set when an earlier
// submission with the same idempotency key produced it.
type CheckoutResult struct {
	Order *models.Order
	// Replayed is set when the idempotency key matched an earlier order.
	Replayed bool
}

// CheckoutService turns the session cart into an order.
type CheckoutService struct {
	cart      *CartService
	store     repository.ContentStore
	sessions  repository.SessionStore
	payments  payment.Provider
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(cart *CartService, store repository.ContentStore, sessions repository.SessionStore,
	payments payment.Provider, publisher events.Publisher, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		cart:      cart,
		store:     store,
		sessions:  sessions,
		payments:  payments,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Prefill returns billing values from the logged-in identity, if any.
func (s *CheckoutService) Prefill(ctx context.Context, sessionID string) (*Prefill, error) {
	identity, err := s.sessions.GetIdentity(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return &Prefill{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load identity: %w: %w", ErrUnavailable, err)
	}
	return &Prefill{
		FullName:   identity.Name,
		Email:      identity.Email,
		Phone:      identity.MobileNumber,
		Address:    identity.Address.Street,
		City:       identity.Address.City,
		PostalCode: identity.Address.PostalCode,
		Country:    identity.Address.Country,
	}, nil
}

// CreatePaymentIntent opens a provider intent for the session's cart total.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, sessionID string) (*payment.Intent, error) {
	q, err := s.cartQuote(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	intent, err := s.payments.CreateIntent(ctx, MinorUnits(q.total), s.cart.pricing.Currency, map[string]string{
		"session_id": sessionID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Payment intent created",
		zap.String("session_id", sessionID),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount", intent.Amount))
	return intent, nil
}

// PlaceOrder validates the form, reserves stock, takes payment and writes the
// order. A non-empty idempotencyKey makes retries return the first order.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID, idempotencyKey string, form CheckoutForm) (*CheckoutResult, error) {
	form.normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var key *string
	if idempotencyKey = strings.TrimSpace(idempotencyKey); idempotencyKey != "" {
		scoped := sessionID + ":" + idempotencyKey
		key = &scoped

		claimed, orderID, err := s.sessions.ClaimIdempotencyKey(ctx, scoped)
		if err != nil {
			return nil, fmt.Errorf("claim idempotency key: %w: %w", ErrUnavailable, err)
		}
		if !claimed {
			if orderID == "" {
				return nil, ErrCheckoutInProgress
			}
			return s.replay(ctx, orderID)
		}
		// The claim may have expired while the order it produced still exists.
		if existing, err := s.store.OrderByIdempotencyKey(ctx, scoped); err == nil {
			s.completeKey(ctx, scoped, existing.ID)
			return &CheckoutResult{Order: existing, Replayed: true}, nil
		}
	}

	order, err := s.place(ctx, sessionID, key, form)
	if err != nil {
		if key != nil {
			if relErr := s.sessions.ReleaseIdempotencyKey(ctx, *key); relErr != nil {
				s.logger.Warn("Failed to release idempotency key", zap.Error(relErr))
			}
		}
		return nil, err
	}
	if key != nil {
		s.completeKey(ctx, *key, order.ID)
	}
	s.finish(ctx, sessionID, order)
	return &CheckoutResult{Order: order}, nil
}

func (s *CheckoutService) place(ctx context.Context, sessionID string, key *string, form CheckoutForm) (*models.Order, error) {
	q, err := s.cartQuote(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:             uuid.NewString(),
		FullName:       form.FullName,
		Email:          form.Email,
		Phone:          form.Phone,
		Address:        form.Address,
		City:           form.City,
		PostalCode:     form.PostalCode,
		Country:        form.Country,
		PaymentMethod:  form.PaymentMethod,
		PaymentStatus:  models.PaymentStatusCashOnDelivery,
		IdempotencyKey: key,
		Currency:       s.cart.pricing.Currency,
		Subtotal:       q.subtotal.Round(2).InexactFloat64(),
		Shipping:       q.shipping.Round(2).InexactFloat64(),
		Amount:         q.total.Round(2).InexactFloat64(),
		Status:         models.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, line := range q.lines {
		order.Items = append(order.Items, models.OrderItem{
			OrderID:     order.ID,
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
		})
	}
	if identity, err := s.sessions.GetIdentity(ctx, sessionID); err == nil {
		order.UserID = identity.ID
	}

	changes := order.StockChanges()
	if err := s.store.ReserveStock(ctx, changes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("reserve stock: %w", err)
	}

	if form.PaymentMethod == models.PaymentMethodCard {
		if err := s.charge(ctx, order, MinorUnits(q.total), form); err != nil {
			s.releaseStock(ctx, order.ID, changes)
			return nil, err
		}
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		s.logger.Error("Failed to write order, compensating",
			zap.String("order_id", order.ID),
			zap.Error(err))
		s.releaseStock(ctx, order.ID, changes)
		if order.PaymentIntentID != "" {
			if refundErr := s.payments.Refund(ctx, order.PaymentIntentID); refundErr != nil {
				s.logger.Error("Failed to refund payment",
					zap.String("order_id", order.ID),
					zap.String("intent_id", order.PaymentIntentID),
					zap.Error(refundErr))
			}
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("payment_method", order.PaymentMethod),
		zap.Float64("amount", order.Amount))
	return order, nil
}

// charge checks the intent against the server total and confirms it.
func (s *CheckoutService) charge(ctx context.Context, order *models.Order, amount int64, form CheckoutForm) error {
	intent, err := s.payments.GetIntent(ctx, form.PaymentIntentID)
	if err != nil {
		return fmt.Errorf("load payment intent: %w", err)
	}
	if intent.Amount != amount || !strings.EqualFold(intent.Currency, order.Currency) {
		s.logger.Warn("Payment intent does not match cart",
			zap.String("intent_id", intent.ID),
			zap.Int64("intent_amount", intent.Amount),
			zap.Int64("cart_amount", amount))
		return ErrAmountMismatch
	}

	confirmed, err := s.payments.Confirm(ctx, intent.ID, form.PaymentMethodID)
	if err != nil {
		// An unsettled intent (e.g. awaiting 3-D Secure) could still be
		// completed by the customer after the stock is released.
		s.voidIntent(ctx, order.ID, intent.ID)
		return fmt.Errorf("confirm payment: %w", err)
	}
	intent = confirmed
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentIntentID = intent.ID
	return nil
}

func (s *CheckoutService) voidIntent(ctx context.Context, orderID, intentID string) {
	if err := s.payments.Cancel(ctx, intentID); err != nil {
		s.logger.Error("Failed to cancel payment intent",
			zap.String("order_id", orderID),
			zap.String("intent_id", intentID),
			zap.Error(err))
	}
}

func (s *CheckoutService) cartQuote(ctx context.Context, sessionID string) (*quote, error) {
	entries, err := s.cart.entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyCart
	}
	q, err := s.cart.quote(ctx, sessionID, entries)
	if err != nil {
		return nil, err
	}
	if len(q.lines) == 0 {
		return nil, ErrEmptyCart
	}
	return q, nil
}

func (s *CheckoutService) replay(ctx context.Context, orderID string) (*CheckoutResult, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load replayed order %s: %w", orderID, err)
	}
	return &CheckoutResult{Order: order, Replayed: true}, nil
}

func (s *CheckoutService) completeKey(ctx context.Context, key, orderID string) {
	if err := s.sessions.CompleteIdempotencyKey(ctx, key, orderID); err != nil {
		s.logger.Warn("Failed to record idempotency key", zap.String("order_id", orderID), zap.Error(err))
	}
}

func (s *CheckoutService) releaseStock(ctx context.Context, orderID string, changes []models.StockChange) {
	if err := s.store.ReleaseStock(ctx, changes); err != nil {
		s.logger.Error("Failed to release reserved stock",
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}

// finish runs the post-order steps. The order is already durable, so
// failures here are logged only.
func (s *CheckoutService) finish(ctx context.Context, sessionID string, order *models.Order) {
	if err := s.sessions.ClearCart(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to clear cart", zap.String("order_id", order.ID), zap.Error(err))
	}
	snapshot := &models.CheckoutSnapshot{
		OrderID:       order.ID,
		Amount:        order.Amount,
		Currency:      order.Currency,
		PaymentStatus: order.PaymentStatus,
		Items:         order.Items,
		PlacedAt:      order.CreatedAt,
	}
	if err := s.sessions.SaveCheckoutSnapshot(ctx, sessionID, snapshot); err != nil {
		s.logger.Warn("Failed to save checkout snapshot", zap.String("order_id", order.ID), zap.Error(err))
	}
	s.publisher.Publish(&events.OrderPlaced{Order: *order})
}

// LastCheckout returns the snapshot of the session's most recent order.
func (s *CheckoutService) LastCheckout(ctx context.Context, sessionID string) (*models.CheckoutSnapshot, error) {
	snapshot, err := s.sessions.GetCheckoutSnapshot(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoCheckout
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout snapshot: %w: %w", ErrUnavailable, err)
	}
	return snapshot, nil
}
