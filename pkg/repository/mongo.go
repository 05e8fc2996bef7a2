package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	productsCollection = "products"
	usersCollection    = "users"
	ordersCollection   = "orders"
	messagesCollection = "messages"
)

// MongoRepository owns the client connection shared by the document content
// store and the audit log.
type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

// NewMongoRepository connects to MongoDB and pings it.
func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	collection := m.database.Collection(m.config.AuditCollection)
	log.CreatedAt = time.Now()
	_, err := collection.InsertOne(ctx, log)
	return err
}

func (m *MongoRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*models.AuditLog, error) {
	collection := m.database.Collection(m.config.AuditCollection)

	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*models.AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

// MongoStore is the document-backed ContentStore.
type MongoStore struct {
	repo   *MongoRepository
	logger *zap.Logger
}

// NewMongoStore serves the content store from repo's database.
func NewMongoStore(repo *MongoRepository, logger *zap.Logger) *MongoStore {
	return &MongoStore{repo: repo, logger: logger}
}

func (s *MongoStore) coll(name string) *mongo.Collection {
	return s.repo.database.Collection(name)
}

// EnsureIndexes creates the unique indexes the store relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to index users.email: %w", err)
	}

	_, err = s.coll(ordersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to index orders: %w", err)
	}

	_, err = s.coll(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to index products: %w", err)
	}
	return nil
}

func productQuery(filter ProductFilter) bson.M {
	query := bson.M{}
	if filter.Featured != nil {
		query["isFeaturedProduct"] = *filter.Featured
	}
	if filter.Category != "" {
		// Case-insensitive like the memory store and MySQL's default collation.
		query["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.Category) + "$", Options: "i"}
	}
	if filter.ExcludeID != "" {
		query["_id"] = bson.M{"$ne": filter.ExcludeID}
	}
	return query
}

func (s *MongoStore) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	direction := 1
	if filter.Sort == SortPriceDesc {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "price", Value: direction}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.coll(productsCollection).Find(ctx, productQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (s *MongoStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.coll(productsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		return nil, mongoError(err)
	}
	return &product, nil
}

func (s *MongoStore) ProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	cursor, err := s.coll(productsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (s *MongoStore) CreateProduct(ctx context.Context, product *models.Product) error {
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	_, err := s.coll(productsCollection).InsertOne(ctx, product)
	return mongoError(err)
}

func (s *MongoStore) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stockLevel"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"stockLevel": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := s.coll(productsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetProduct(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, &InsufficientStockError{ProductID: id, Requested: -delta}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	return &product, nil
}

// ReserveStock decrements each product only while enough stock is left. The
// backend has no multi-document transaction here, so a failed item rolls back
// the items already reserved.
func (s *MongoStore) ReserveStock(ctx context.Context, changes []models.StockChange) error {
	reserved := make([]models.StockChange, 0, len(changes))
	for _, c := range changes {
		res, err := s.coll(productsCollection).UpdateOne(ctx,
			bson.M{"_id": c.ProductID, "stockLevel": bson.M{"$gte": c.Quantity}},
			bson.M{"$inc": bson.M{"stockLevel": -c.Quantity}, "$set": bson.M{"updatedAt": time.Now()}},
		)
		if err == nil && res.MatchedCount == 0 {
			err = &InsufficientStockError{ProductID: c.ProductID, Requested: c.Quantity}
			if _, getErr := s.GetProduct(ctx, c.ProductID); errors.Is(getErr, ErrNotFound) {
				err = ErrNotFound
			}
		}
		if err != nil {
			if relErr := s.ReleaseStock(ctx, reserved); relErr != nil {
				s.logger.Error("Failed to roll back stock reservation",
					zap.Any("reserved", reserved), zap.Error(relErr))
			}
			return err
		}
		reserved = append(reserved, c)
	}
	return nil
}

func (s *MongoStore) ReleaseStock(ctx context.Context, changes []models.StockChange) error {
	var errs []error
	for _, c := range changes {
		_, err := s.coll(productsCollection).UpdateOne(ctx,
			bson.M{"_id": c.ProductID},
			bson.M{"$inc": bson.M{"stockLevel": c.Quantity}, "$set": bson.M{"updatedAt": time.Now()}},
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", c.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	_, err := s.coll(usersCollection).InsertOne(ctx, user)
	return mongoError(err)
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.coll(usersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, mongoError(err)
	}
	return &user, nil
}

func (s *MongoStore) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := s.coll(ordersCollection).InsertOne(ctx, order)
	return mongoError(err)
}

func (s *MongoStore) findOrder(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	if err := s.coll(ordersCollection).FindOne(ctx, filter).Decode(&order); err != nil {
		return nil, mongoError(err)
	}
	return &order, nil
}

func (s *MongoStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.findOrder(ctx, bson.M{"_id": id})
}

func (s *MongoStore) OrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	return s.findOrder(ctx, bson.M{"idempotencyKey": key})
}

func (s *MongoStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	query := bson.M{}
	if filter.Email != "" {
		query["email"] = filter.Email
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := s.coll(ordersCollection).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(normalizeLimit(filter.Limit, 20, 100)))

	cursor, err := s.coll(ordersCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, total, nil
}

func (s *MongoStore) UpdateOrderStatus(ctx context.Context, id, from, to string) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}

	var order models.Order
	err := s.coll(ordersCollection).FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetOrder(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return &order, nil
}

func (s *MongoStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.coll(messagesCollection).InsertOne(ctx, msg)
	return mongoError(err)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.repo.Close(ctx)
}

func mongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
