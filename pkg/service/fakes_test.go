package service

import (
	"context"
	"sync"
	"testing"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// fakeStore is a MemoryStore whose calls can be intercepted per method.
type fakeStore struct {
	*repository.MemoryStore

	ReserveStockFn  func(ctx context.Context, changes []models.StockChange) error
	ReleaseStockFn  func(ctx context.Context, changes []models.StockChange) error
	CreateOrderFn   func(ctx context.Context, order *models.Order) error
	ProductsByIDsFn func(ctx context.Context, ids []string) ([]models.Product, error)

	mu           sync.Mutex
	reserveCalls int
	orderWrites  int
}

func (f *fakeStore) ReserveStock(ctx context.Context, changes []models.StockChange) error {
	f.mu.Lock()
	f.reserveCalls++
	f.mu.Unlock()
	if f.ReserveStockFn != nil {
		return f.ReserveStockFn(ctx, changes)
	}
	return f.MemoryStore.ReserveStock(ctx, changes)
}

func (f *fakeStore) ReleaseStock(ctx context.Context, changes []models.StockChange) error {
	if f.ReleaseStockFn != nil {
		return f.ReleaseStockFn(ctx, changes)
	}
	return f.MemoryStore.ReleaseStock(ctx, changes)
}

func (f *fakeStore) CreateOrder(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	f.orderWrites++
	f.mu.Unlock()
	if f.CreateOrderFn != nil {
		return f.CreateOrderFn(ctx, order)
	}
	return f.MemoryStore.CreateOrder(ctx, order)
}

func (f *fakeStore) ProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if f.ProductsByIDsFn != nil {
		return f.ProductsByIDsFn(ctx, ids)
	}
	return f.MemoryStore.ProductsByIDs(ctx, ids)
}

type fakeSessions struct {
	*repository.MemorySessionStore

	GetCartFn func(ctx context.Context, sessionID string) ([]models.CartEntry, error)
}

func (f *fakeSessions) GetCart(ctx context.Context, sessionID string) ([]models.CartEntry, error) {
	if f.GetCartFn != nil {
		return f.GetCartFn(ctx, sessionID)
	}
	return f.MemorySessionStore.GetCart(ctx, sessionID)
}

type fakePayments struct {
	CreateIntentFn func(ctx context.Context, amount int64, currency string, metadata map[string]string) (*payment.Intent, error)
	GetIntentFn    func(ctx context.Context, id string) (*payment.Intent, error)
	ConfirmFn      func(ctx context.Context, id, paymentMethod string) (*payment.Intent, error)
	CancelFn       func(ctx context.Context, id string) error
	RefundFn       func(ctx context.Context, id string) error

	mu       sync.Mutex
	confirms int
	cancels  []string
	refunds  []string
}

func (f *fakePayments) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	return f.CreateIntentFn(ctx, amount, currency, metadata)
}

func (f *fakePayments) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	return f.GetIntentFn(ctx, id)
}

func (f *fakePayments) Confirm(ctx context.Context, id, paymentMethod string) (*payment.Intent, error) {
	f.mu.Lock()
	f.confirms++
	f.mu.Unlock()
	return f.ConfirmFn(ctx, id, paymentMethod)
}

func (f *fakePayments) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	f.cancels = append(f.cancels, id)
	f.mu.Unlock()
	if f.CancelFn != nil {
		return f.CancelFn(ctx, id)
	}
	return nil
}

func (f *fakePayments) Refund(ctx context.Context, id string) error {
	f.mu.Lock()
	f.refunds = append(f.refunds, id)
	f.mu.Unlock()
	if f.RefundFn != nil {
		return f.RefundFn(ctx, id)
	}
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []interface{}
}

func (r *recorder) Publish(event interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) all() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interface{}(nil), r.events...)
}

var testProducts = []models.Product{
	{ID: "p1", Name: "Chair", Price: 10, StockLevel: 5, Category: "Chair", IsFeatured: true},
	{ID: "p2", Name: "Sofa", Price: 25.5, StockLevel: 1, Category: "Sofa"},
	{ID: "p3", Name: "Stool", Price: 7.25, StockLevel: 0, Category: "Chair", DiscountPercentage: 20},
	{ID: "p4", Name: "Bench", Price: 40, StockLevel: 3, Category: "Chair"},
}

type harness struct {
	store    *fakeStore
	sessions *fakeSessions
	payments *fakePayments
	events   *recorder

	cart     *CartService
	checkout *CheckoutService
	identity *IdentityService
	catalog  *CatalogService
	contact  *ContactService
	admin    *AdminService
}

func newHarness(t *testing.T, shop config.ShopConfig) *harness {
	t.Helper()
	ctx := context.Background()

	mem := repository.NewMemoryStore()
	for _, p := range testProducts {
		product := p
		require.NoError(t, mem.CreateProduct(ctx, &product))
	}

	h := &harness{
		store:    &fakeStore{MemoryStore: mem},
		sessions: &fakeSessions{MemorySessionStore: repository.NewMemorySessionStore()},
		payments: &fakePayments{},
		events:   &recorder{},
	}
	if shop.Currency == "" {
		shop.Currency = "USD"
	}
	logger := zap.NewNop()

	h.cart = NewCartService(h.store, h.sessions, NewPricing(&shop), logger)
	h.checkout = NewCheckoutService(h.cart, h.store, h.sessions, h.payments, h.events, logger)
	h.identity = NewIdentityService(h.store, h.sessions, h.events, logger)
	h.identity.cost = bcrypt.MinCost
	h.catalog = NewCatalogService(h.store, logger)
	h.contact = NewContactService(h.store, h.events, logger)
	h.admin = NewAdminService(h.store, mem, h.events, logger)
	return h
}

func (h *harness) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := h.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.StockLevel
}
