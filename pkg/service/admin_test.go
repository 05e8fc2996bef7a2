package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeCashOrder(t *testing.T, h *harness, sessionID string, qty int) *models.Order {
	t.Helper()
	ctx := context.Background()
	_, err := h.cart.Add(ctx, sessionID, "p1", qty)
	require.NoError(t, err)
	res, err := h.checkout.PlaceOrder(ctx, sessionID, "", validForm(models.PaymentMethodCash))
	require.NoError(t, err)
	return res.Order
}

func TestAdminAdjustStock(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})

	p, err := h.admin.AdjustStock(ctx, "p2", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, p.StockLevel)

	_, err = h.admin.AdjustStock(ctx, "p2", -6)
	var stockErr *repository.InsufficientStockError
	assert.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, h.stock(t, "p2"))

	_, err = h.admin.AdjustStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = h.admin.AdjustStock(ctx, "p2", 0)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestAdminStatusMachine(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})
	order := placeCashOrder(t, h, "s1", 2)

	_, err := h.admin.UpdateOrderStatus(ctx, order.ID, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = h.admin.UpdateOrderStatus(ctx, order.ID, "lost")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	for _, status := range []string{models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered} {
		updated, err := h.admin.UpdateOrderStatus(ctx, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	_, err = h.admin.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = h.admin.UpdateOrderStatus(ctx, "missing", models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAdminCancelRestocks(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})
	order := placeCashOrder(t, h, "s1", 2)
	require.Equal(t, 3, h.stock(t, "p1"))

	updated, err := h.admin.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 5, h.stock(t, "p1"))

	evs := h.events.all()
	last, ok := evs[len(evs)-1].(*events.OrderStatusChanged)
	require.True(t, ok)
	assert.Equal(t, models.OrderStatusPending, last.From)
	assert.Equal(t, models.OrderStatusCancelled, last.To)
	assert.Equal(t, "ada@example.com", last.Email)
}

func TestAdminCancelRetriesAfterRestockFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})
	order := placeCashOrder(t, h, "s1", 2)
	require.Equal(t, 3, h.stock(t, "p1"))

	h.store.ReleaseStockFn = func(ctx context.Context, changes []models.StockChange) error {
		return errors.New("db blip")
	}
	_, err := h.admin.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.Error(t, err)

	stored, err := h.admin.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, 3, h.stock(t, "p1"))
	eventsBefore := len(h.events.all())

	h.store.ReleaseStockFn = nil
	updated, err := h.admin.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 5, h.stock(t, "p1"))
	assert.Len(t, h.events.all(), eventsBefore+1)
}

func TestAdminListOrders(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})
	first := placeCashOrder(t, h, "s1", 1)
	time.Sleep(2 * time.Millisecond)
	second := placeCashOrder(t, h, "s2", 1)

	page, err := h.admin.ListOrders(ctx, OrderQuery{PageSize: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, second.ID, page.Orders[0].ID)

	page, err = h.admin.ListOrders(ctx, OrderQuery{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, first.ID, page.Orders[0].ID)

	_, err = h.admin.ListOrders(ctx, OrderQuery{Status: "lost"})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestAdminAuditLogs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.ShopConfig{})
	require.NoError(t, h.store.CreateAuditLog(ctx, &models.AuditLog{EntityID: "o1", Action: "order.placed"}))

	logs, err := h.admin.ListAuditLogs(ctx, "o1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	_, err = h.admin.ListAuditLogs(ctx, "", 10)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
