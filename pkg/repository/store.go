package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	// ErrConflict means the record changed between read and write.
	ErrConflict = errors.New("conflict")
)

// InsufficientStockError is returned when a reservation asks for more units
// than a product has left.
type InsufficientStockError struct {
	ProductID string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", e.ProductID, e.Requested)
}

const (
	SortPriceAsc  = "price-low-to-high"
	SortPriceDesc = "price-high-to-low"
)

type ProductFilter struct {
	Featured  *bool
	Category  string
	ExcludeID string
	Sort      string
	Limit     int
}

type OrderFilter struct {
	Email  string
	Status string
	Offset int
	Limit  int
}

// ContentStore is the facade over the structured-content backend.
type ContentStore interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	// AdjustStock adds delta to the stock level; the result may not go below zero.
	AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error)
	// ReserveStock decrements every change or none of them.
	ReserveStock(ctx context.Context, changes []models.StockChange) error
	ReleaseStock(ctx context.Context, changes []models.StockChange) error

	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	OrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	// UpdateOrderStatus moves an order from one status to another and fails
	// with ErrConflict when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, id, from, to string) (*models.Order, error)

	CreateMessage(ctx context.Context, msg *models.Message) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*models.AuditLog, error)
}

// SessionStore holds per-session state: the cart, the cached identity, the
// last checkout, and idempotency claims for checkout submissions.
type SessionStore interface {
	GetCart(ctx context.Context, sessionID string) ([]models.CartEntry, error)
	SaveCart(ctx context.Context, sessionID string, entries []models.CartEntry) error
	ClearCart(ctx context.Context, sessionID string) error

	GetIdentity(ctx context.Context, sessionID string) (*models.Identity, error)
	SaveIdentity(ctx context.Context, sessionID string, identity *models.Identity) error
	DeleteIdentity(ctx context.Context, sessionID string) error

	GetCheckoutSnapshot(ctx context.Context, sessionID string) (*models.CheckoutSnapshot, error)
	SaveCheckoutSnapshot(ctx context.Context, sessionID string, snapshot *models.CheckoutSnapshot) error

	// ClaimIdempotencyKey atomically claims key. When the key was already
	// claimed it returns false and the order id recorded for it, which is
	// empty while the first submission is still in flight.
	ClaimIdempotencyKey(ctx context.Context, key string) (bool, string, error)
	CompleteIdempotencyKey(ctx context.Context, key, orderID string) error
	ReleaseIdempotencyKey(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

func normalizeLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
