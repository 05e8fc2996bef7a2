package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/pkg/models"
)

// MemoryStore is an in-process ContentStore and AuditStore for local runs
// and tests.
type MemoryStore struct {
	mu sync.RWMutex

	products map[string]models.Product
	users    map[string]models.User
	orders   map[string]models.Order
	messages map[string]models.Message
	audit    []*models.AuditLog
}

// NewMemoryStore returns an empty in-process content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]models.Product),
		users:    make(map[string]models.User),
		orders:   make(map[string]models.Order),
		messages: make(map[string]models.Message),
	}
}

func (m *MemoryStore) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Featured != nil && p.IsFeatured != *filter.Featured {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if filter.ExcludeID != "" && p.ID == filter.ExcludeID {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Price == out[j].Price {
			return out[i].ID < out[j].ID
		}
		if filter.Sort == SortPriceDesc {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateProduct(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[product.ID]; ok {
		return ErrDuplicate
	}
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	m.products[product.ID] = *product
	return nil
}

func (m *MemoryStore) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.StockLevel+delta < 0 {
		return nil, &InsufficientStockError{ProductID: id, Requested: -delta}
	}
	p.StockLevel += delta
	p.UpdatedAt = time.Now()
	m.products[id] = p
	return &p, nil
}

func (m *MemoryStore) ReserveStock(ctx context.Context, changes []models.StockChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check everything before touching anything.
	need := make(map[string]int, len(changes))
	for _, c := range changes {
		need[c.ProductID] += c.Quantity
	}
	for _, c := range changes {
		p, ok := m.products[c.ProductID]
		if !ok {
			return ErrNotFound
		}
		if p.StockLevel < need[c.ProductID] {
			return &InsufficientStockError{ProductID: c.ProductID, Requested: c.Quantity}
		}
	}
	for id, qty := range need {
		p := m.products[id]
		p.StockLevel -= qty
		m.products[id] = p
	}
	return nil
}

func (m *MemoryStore) ReleaseStock(ctx context.Context, changes []models.StockChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range changes {
		p, ok := m.products[c.ProductID]
		if !ok {
			continue
		}
		p.StockLevel += c.Quantity
		m.products[c.ProductID] = p
	}
	return nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; ok {
		return ErrDuplicate
	}
	if order.IdempotencyKey != nil {
		for _, o := range m.orders {
			if o.IdempotencyKey != nil && *o.IdempotencyKey == *order.IdempotencyKey {
				return ErrDuplicate
			}
		}
	}
	m.orders[order.ID] = copyOrder(*order)
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (m *MemoryStore) OrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, o := range m.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			o = copyOrder(o)
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]models.Order, 0)
	for _, o := range m.orders {
		if filter.Email != "" && !strings.EqualFold(o.Email, filter.Email) {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		matched = append(matched, copyOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []models.Order{}, total, nil
	}
	matched = matched[filter.Offset:]
	limit := normalizeLimit(filter.Limit, 20, 100)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, id, from, to string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	if o.Status != from {
		return nil, ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	m.orders[id] = o

	o = copyOrder(o)
	return &o, nil
}

func (m *MemoryStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages[msg.ID] = *msg
	return nil
}

// Messages returns stored contact messages, oldest first.
func (m *MemoryStore) Messages() []models.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MemoryStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.CreatedAt = time.Now()
	entry := *log
	m.audit = append(m.audit, &entry)
	return nil
}

func (m *MemoryStore) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var logs []*models.AuditLog
	for i := len(m.audit) - 1; i >= 0; i-- {
		if m.audit[i].EntityID != entityID {
			continue
		}
		entry := *m.audit[i]
		logs = append(logs, &entry)
		if limit > 0 && int64(len(logs)) == limit {
			break
		}
	}
	return logs, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close(ctx context.Context) error { return nil }

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

// MemorySessionStore keeps session state in process. TTLs are not enforced.
type MemorySessionStore struct {
	mu sync.Mutex

	carts      map[string][]models.CartEntry
	identities map[string]models.Identity
	snapshots  map[string]models.CheckoutSnapshot
	claims     map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		carts:      make(map[string][]models.CartEntry),
		identities: make(map[string]models.Identity),
		snapshots:  make(map[string]models.CheckoutSnapshot),
		claims:     make(map[string]string),
	}
}

func (s *MemorySessionStore) GetCart(ctx context.Context, sessionID string) ([]models.CartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.CartEntry(nil), s.carts[sessionID]...), nil
}

func (s *MemorySessionStore) SaveCart(ctx context.Context, sessionID string, entries []models.CartEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		delete(s.carts, sessionID)
		return nil
	}
	s.carts[sessionID] = append([]models.CartEntry(nil), entries...)
	return nil
}

func (s *MemorySessionStore) ClearCart(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

func (s *MemorySessionStore) GetIdentity(ctx context.Context, sessionID string) (*models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.identities[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &id, nil
}

func (s *MemorySessionStore) SaveIdentity(ctx context.Context, sessionID string, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identities[sessionID] = *identity
	return nil
}

func (s *MemorySessionStore) DeleteIdentity(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.identities, sessionID)
	return nil
}

func (s *MemorySessionStore) GetCheckoutSnapshot(ctx context.Context, sessionID string) (*models.CheckoutSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &snap, nil
}

func (s *MemorySessionStore) SaveCheckoutSnapshot(ctx context.Context, sessionID string, snapshot *models.CheckoutSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[sessionID] = *snapshot
	return nil
}

func (s *MemorySessionStore) ClaimIdempotencyKey(ctx context.Context, key string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if orderID, ok := s.claims[key]; ok {
		return false, orderID, nil
	}
	s.claims[key] = ""
	return true, "", nil
}

func (s *MemorySessionStore) CompleteIdempotencyKey(ctx context.Context, key, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.claims[key] = orderID
	return nil
}

func (s *MemorySessionStore) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.claims, key)
	return nil
}

func (s *MemorySessionStore) Ping(ctx context.Context) error { return nil }

func (s *MemorySessionStore) Close() error { return nil }
