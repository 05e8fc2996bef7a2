package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

// OrderQuery filters and pages the order list.
type OrderQuery struct {
	Email    string
	Status   string
	Page     int
	PageSize int
}

// OrderPage is one page of orders, newest first.
type OrderPage struct {
	Orders   []models.Order `json:"orders"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// AdminService backs the back-office RPCs.
type AdminService struct {
	store     repository.ContentStore
	audit     repository.AuditStore
	publisher events.Publisher
	logger    *zap.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(store repository.ContentStore, audit repository.AuditStore, publisher events.Publisher, logger *zap.Logger) *AdminService {
	return &AdminService{store: store, audit: audit, publisher: publisher, logger: logger}
}

// GetProduct returns a product with its stock level.
func (s *AdminService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

// AdjustStock adds delta (which may be negative) to a product's stock.
func (s *AdminService) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	if delta == 0 {
		return nil, &ValidationError{Fields: map[string]string{"delta": "must not be zero"}}
	}
	product, err := s.store.AdjustStock(ctx, id, delta)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock adjusted",
		zap.String("product_id", id),
		zap.Int("delta", delta),
		zap.Int("stock_level", product.StockLevel))
	s.publisher.Publish(&events.StockAdjusted{ProductID: id, Delta: delta, StockLevel: product.StockLevel})
	return product, nil
}

// GetOrder returns an order with its items.
func (s *AdminService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

// ListOrders returns a page of orders matching q.
func (s *AdminService) ListOrders(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	if q.Status != "" && !models.IsOrderStatus(q.Status) {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown order status"}}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	q.PageSize = PageSize(q.PageSize)

	orders, total, err := s.store.ListOrders(ctx, repository.OrderFilter{
		Email:  q.Email,
		Status: q.Status,
		Offset: (q.Page - 1) * q.PageSize,
		Limit:  q.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &OrderPage{Orders: orders, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// UpdateOrderStatus moves an order along the status machine. Cancelling
// returns its items to stock.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	if !models.IsOrderStatus(status) {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown order status"}}
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !models.CanTransition(from, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
	}

	updated, err := s.store.UpdateOrderStatus(ctx, id, from, status)
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}

	if status == models.OrderStatusCancelled {
		if err := s.store.ReleaseStock(ctx, updated.StockChanges()); err != nil {
			s.logger.Error("Failed to restock cancelled order", zap.String("order_id", id), zap.Error(err))
			// Put the order back so the cancel can be retried.
			if _, revertErr := s.store.UpdateOrderStatus(ctx, id, status, from); revertErr != nil {
				s.logger.Error("Failed to revert order status",
					zap.String("order_id", id),
					zap.String("status", from),
					zap.Error(revertErr))
			}
			return nil, fmt.Errorf("restock order %s: %w", id, err)
		}
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("from", from),
		zap.String("to", status))
	s.publisher.Publish(&events.OrderStatusChanged{
		OrderID: id,
		Email:   updated.Email,
		From:    from,
		To:      status,
		At:      time.Now(),
	})
	return updated, nil
}

// ListAuditLogs returns the newest audit entries recorded for entityID.
func (s *AdminService) ListAuditLogs(ctx context.Context, entityID string, limit int64) ([]*models.AuditLog, error) {
	if entityID == "" {
		return nil, &ValidationError{Fields: map[string]string{"entity_id": "is required"}}
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = 50
	}
	logs, err := s.audit.GetAuditLogs(ctx, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
