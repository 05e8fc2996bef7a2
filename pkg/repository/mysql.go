package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// SQLStore is the relational ContentStore. Stock reservations run in a single
// transaction.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore opens a MySQL content store.
func NewSQLStore(cfg *config.MySQLConfig) (*SQLStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &SQLStore{db: db}, nil
}

// NewSQLStoreWithDB wraps an already opened gorm handle.
func NewSQLStoreWithDB(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates or updates the tables.
func (s *SQLStore) Migrate() error {
	if err := s.db.AutoMigrate(&models.Product{}, &models.User{}, &models.Order{}, &models.OrderItem{}, &models.Message{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func (s *SQLStore) productQuery(ctx context.Context, filter ProductFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if filter.Featured != nil {
		query = query.Where("is_featured = ?", *filter.Featured)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ExcludeID != "" {
		query = query.Where("id <> ?", filter.ExcludeID)
	}
	if filter.Sort == SortPriceDesc {
		query = query.Order("price DESC")
	} else {
		query = query.Order("price ASC")
	}
	query = query.Order("id ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return query
}

func (s *SQLStore) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.productQuery(ctx, filter).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *SQLStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, gormError(err)
	}
	return &product, nil
}

func (s *SQLStore) ProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

func (s *SQLStore) CreateProduct(ctx context.Context, product *models.Product) error {
	return gormError(s.db.WithContext(ctx).Create(product).Error)
}

func (s *SQLStore) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.Product{}).Where("id = ?", id)
		if delta < 0 {
			query = query.Where("stock_level >= ?", -delta)
		}
		res := query.Updates(map[string]interface{}{
			"stock_level": gorm.Expr("stock_level + ?", delta),
			"updated_at":  time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Where("id = ?", id).Take(&product).Error; err != nil {
				return gormError(err)
			}
			return &InsufficientStockError{ProductID: id, Requested: -delta}
		}
		return tx.Where("id = ?", id).Take(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *SQLStore) ReserveStock(ctx context.Context, changes []models.StockChange) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range changes {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_level >= ?", c.ProductID, c.Quantity).
				UpdateColumn("stock_level", gorm.Expr("stock_level - ?", c.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &InsufficientStockError{ProductID: c.ProductID, Requested: c.Quantity}
			}
		}
		return nil
	})
}

func (s *SQLStore) ReleaseStock(ctx context.Context, changes []models.StockChange) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range changes {
			err := tx.Model(&models.Product{}).
				Where("id = ?", c.ProductID).
				UpdateColumn("stock_level", gorm.Expr("stock_level + ?", c.Quantity)).Error
			if err != nil {
				return fmt.Errorf("release %s: %w", c.ProductID, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User) error {
	return gormError(s.db.WithContext(ctx).Create(user).Error)
}

func (s *SQLStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, gormError(err)
	}
	return &user, nil
}

func (s *SQLStore) CreateOrder(ctx context.Context, order *models.Order) error {
	return gormError(s.db.WithContext(ctx).Create(order).Error)
}

func (s *SQLStore) findOrder(ctx context.Context, query string, arg interface{}) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").Where(query, arg).Take(&order).Error; err != nil {
		return nil, gormError(err)
	}
	return &order, nil
}

func (s *SQLStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.findOrder(ctx, "id = ?", id)
}

func (s *SQLStore) OrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	return s.findOrder(ctx, "idempotency_key = ?", key)
}

func (s *SQLStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	var (
		orders []models.Order
		total  int64
	)

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	err := query.Preload("Items").
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(normalizeLimit(filter.Limit, 20, 100)).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (s *SQLStore) UpdateOrderStatus(ctx context.Context, id, from, to string) (*models.Order, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update order: %w", res.Error)
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}
	return order, nil
}

func (s *SQLStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	return gormError(s.db.WithContext(ctx).Create(msg).Error)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
