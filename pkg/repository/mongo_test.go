package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Runs against a real MongoDB when STOREFRONT_TEST_MONGO_URI is set. Each run
// uses a throwaway database.
func newTestMongo(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("STOREFRONT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("STOREFRONT_TEST_MONGO_URI not set")
	}
	repo, err := NewMongoRepository(&config.MongoDBConfig{
		URI:             uri,
		Database:        "storefront_test_" + uuid.NewString()[:8],
		AuditCollection: "audit_logs",
	})
	require.NoError(t, err)

	s := NewMongoStore(repo, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.EnsureIndexes(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		repo.database.Drop(ctx)
		repo.Close(ctx)
	})
	return s
}

func TestMongoReserveStockRollsBack(t *testing.T) {
	s := newTestMongo(t)
	ctx := context.Background()
	_, err := SeedProducts(ctx, s)
	require.NoError(t, err)

	err = s.ReserveStock(ctx, []models.StockChange{
		{ProductID: "chair-cantilever", Quantity: 3},
		{ProductID: "sofa-ultricies", Quantity: 5},
	})
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))

	p, err := s.GetProduct(ctx, "chair-cantilever")
	require.NoError(t, err)
	assert.Equal(t, 30, p.StockLevel)
}

func TestMongoUsersAreUniqueByEmail(t *testing.T) {
	s := newTestMongo(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &models.User{ID: uuid.NewString(), Email: "ada@example.com"}))
	err := s.CreateUser(ctx, &models.User{ID: uuid.NewString(), Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMongoOrderStatusCompareAndSet(t *testing.T) {
	s := newTestMongo(t)
	ctx := context.Background()

	order := &models.Order{ID: uuid.NewString(), Email: "a@b.co", Status: models.OrderStatusPending, CreatedAt: time.Now()}
	require.NoError(t, s.CreateOrder(ctx, order))

	updated, err := s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, updated.Status)

	_, err = s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.UpdateOrderStatus(ctx, "missing", models.OrderStatusPending, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoProductQueryCategoryIgnoresCase(t *testing.T) {
	query := productQuery(ProductFilter{Category: "so.fa"})
	re, ok := query["category"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, `^so\.fa$`, re.Pattern)
	assert.Equal(t, "i", re.Options)

	assert.NotContains(t, productQuery(ProductFilter{}), "category")
}

func TestMongoListProductsByCategory(t *testing.T) {
	s := newTestMongo(t)
	ctx := context.Background()
	_, err := SeedProducts(ctx, s)
	require.NoError(t, err)

	lower, err := s.ListProducts(ctx, ProductFilter{Category: "sofa"})
	require.NoError(t, err)
	exact, err := s.ListProducts(ctx, ProductFilter{Category: "Sofa"})
	require.NoError(t, err)
	assert.Len(t, lower, 2)
	assert.Equal(t, exact, lower)
}
