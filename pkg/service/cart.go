package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const EmptyCartNotice = "Your cart is empty. Add some products!"

// CartLine is one cart entry joined with its live product record.
type CartLine struct {
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	UnitPrice float64        `json:"unit_price"`
	LineTotal float64        `json:"line_total"`
}

// CartView is the cart as rendered to the customer, with totals.
type CartView struct {
	Items    []CartLine `json:"items"`
	Count    int        `json:"count"`
	Subtotal float64    `json:"subtotal"`
	Shipping float64    `json:"shipping"`
	Total    float64    `json:"total"`
	Currency string     `json:"currency"`
	Notice   string     `json:"notice,omitempty"`
}

// Empty reports whether the cart has no lines.
func (v *CartView) Empty() bool {
	return len(v.Items) == 0
}

// quote is a priced cart kept in decimals until it is rendered.
type quote struct {
	lines    []CartLine
	subtotal decimal.Decimal
	shipping decimal.Decimal
	total    decimal.Decimal
}

// Pricing holds the shop-wide money rules.
type Pricing struct {
	Currency              string
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// NewPricing reads the currency and shipping rules from the shop config.
func NewPricing(cfg *config.ShopConfig) Pricing {
	return Pricing{
		Currency:              cfg.Currency,
		ShippingFee:           decimal.NewFromFloat(cfg.ShippingFee),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
	}
}

// Shipping is the flat fee for a subtotal. Empty carts ship free, and so do
// subtotals at or above a positive threshold.
func (p Pricing) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || !p.ShippingFee.IsPositive() {
		return decimal.Zero
	}
	if p.FreeShippingThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.ShippingFee
}

// MinorUnits converts an amount to the smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// ClampQuantity keeps a requested quantity within [1, stock].
func ClampQuantity(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

// CartService manages the session cart against live product records.
type CartService struct {
	products repository.ContentStore
	sessions repository.SessionStore
	pricing  Pricing
	logger   *zap.Logger
}

// NewCartService creates a new cart service.
func NewCartService(products repository.ContentStore, sessions repository.SessionStore, pricing Pricing, logger *zap.Logger) *CartService {
	return &CartService{
		products: products,
		sessions: sessions,
		pricing:  pricing,
		logger:   logger,
	}
}

// View returns the cart, dropping entries whose product no longer exists.
func (s *CartService) View(ctx context.Context, sessionID string) (*CartView, error) {
	entries, err := s.entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	q, err := s.quote(ctx, sessionID, entries)
	if err != nil {
		return nil, err
	}
	return s.render(q), nil
}

// Add puts quantity of a product in the cart, merging with an existing line.
func (s *CartService) Add(ctx context.Context, sessionID, productID string, quantity int) (*CartView, error) {
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.InStock() {
		return nil, ErrOutOfStock
	}

	entries, err := s.entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		quantity = 1
	}

	found := false
	for i := range entries {
		if entries[i].ProductID == productID {
			entries[i].Quantity = ClampQuantity(entries[i].Quantity+quantity, product.StockLevel)
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, models.CartEntry{
			ProductID: productID,
			Quantity:  ClampQuantity(quantity, product.StockLevel),
		})
	}

	if err := s.save(ctx, sessionID, entries); err != nil {
		return nil, err
	}
	s.logger.Debug("Cart item added",
		zap.String("session_id", sessionID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	return s.View(ctx, sessionID)
}

// UpdateQuantity sets a line's quantity, clamped to [1, stock].
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (*CartView, error) {
	entries, err := s.entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(entries, productID)
	if idx < 0 {
		return nil, ErrNotInCart
	}

	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	entries[idx].Quantity = ClampQuantity(quantity, product.StockLevel)

	if err := s.save(ctx, sessionID, entries); err != nil {
		return nil, err
	}
	return s.View(ctx, sessionID)
}

// Remove deletes a product's line from the cart.
func (s *CartService) Remove(ctx context.Context, sessionID, productID string) (*CartView, error) {
	entries, err := s.entries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(entries, productID)
	if idx < 0 {
		return nil, ErrNotInCart
	}
	entries = append(entries[:idx], entries[idx+1:]...)

	if err := s.save(ctx, sessionID, entries); err != nil {
		return nil, err
	}
	return s.View(ctx, sessionID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.sessions.ClearCart(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *CartService) entries(ctx context.Context, sessionID string) ([]models.CartEntry, error) {
	entries, err := s.sessions.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w: %w", ErrUnavailable, err)
	}
	return entries, nil
}

func (s *CartService) save(ctx context.Context, sessionID string, entries []models.CartEntry) error {
	if err := s.sessions.SaveCart(ctx, sessionID, entries); err != nil {
		return fmt.Errorf("save cart: %w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *CartService) product(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return product, nil
}

// quote prices the entries against live product records. Entries whose
// product is gone are dropped and the trimmed cart is persisted.
func (s *CartService) quote(ctx context.Context, sessionID string, entries []models.CartEntry) (*quote, error) {
	q := &quote{lines: []CartLine{}}
	if len(entries) == 0 {
		return q, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	products, err := s.products.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w: %w", ErrUnavailable, err)
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	kept := make([]models.CartEntry, 0, len(entries))
	for _, e := range entries {
		p, ok := byID[e.ProductID]
		if !ok {
			continue
		}
		kept = append(kept, e)

		price := decimal.NewFromFloat(p.Price)
		line := price.Mul(decimal.NewFromInt(int64(e.Quantity)))
		q.subtotal = q.subtotal.Add(line)
		q.lines = append(q.lines, CartLine{
			Product:   p,
			Quantity:  e.Quantity,
			UnitPrice: price.Round(2).InexactFloat64(),
			LineTotal: line.Round(2).InexactFloat64(),
		})
	}

	if len(kept) != len(entries) {
		s.logger.Info("Dropping unknown products from cart",
			zap.String("session_id", sessionID),
			zap.Int("dropped", len(entries)-len(kept)))
		if err := s.save(ctx, sessionID, kept); err != nil {
			s.logger.Warn("Failed to persist trimmed cart", zap.Error(err))
		}
	}

	q.shipping = s.pricing.Shipping(q.subtotal)
	q.total = q.subtotal.Add(q.shipping)
	return q, nil
}

func (s *CartService) render(q *quote) *CartView {
	view := &CartView{
		Items:    q.lines,
		Subtotal: q.subtotal.Round(2).InexactFloat64(),
		Shipping: q.shipping.Round(2).InexactFloat64(),
		Total:    q.total.Round(2).InexactFloat64(),
		Currency: s.pricing.Currency,
	}
	for _, line := range q.lines {
		view.Count += line.Quantity
	}
	if view.Empty() {
		view.Notice = EmptyCartNotice
	}
	return view
}

func indexOf(entries []models.CartEntry, productID string) int {
	for i, e := range entries {
		if e.ProductID == productID {
			return i
		}
	}
	return -1
}
