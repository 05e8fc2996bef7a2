package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	RelatedLimit    = 4
	FeaturedLimit   = 8
)

// PageSizes are the sizes offered by the listing page.
var PageSizes = []int{6, 12, 18}

// ProductView is a product with its discounted display price.
type ProductView struct {
	models.Product
	DisplayPrice float64 `json:"display_price"`
	InStock      bool    `json:"in_stock"`
}

// NewProductView computes the display fields for p.
func NewProductView(p models.Product) ProductView {
	return ProductView{Product: p, DisplayPrice: p.DiscountedPrice(), InStock: p.InStock()}
}

// ProductDetail is a product page: the product and related products.
type ProductDetail struct {
	Product ProductView   `json:"product"`
	Related []ProductView `json:"related"`
}

// ProductQuery holds the listing filters.
type ProductQuery struct {
	Featured *bool
	Category string
	Sort     string
	Limit    int
}

// PageSize applies the listing default and upper bound.
func PageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// CatalogService serves product listings and detail pages.
type CatalogService struct {
	products repository.ContentStore
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(products repository.ContentStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{products: products, logger: logger}
}

// List returns products matching q, sorted by price.
func (s *CatalogService) List(ctx context.Context, q ProductQuery) ([]ProductView, error) {
	switch q.Sort {
	case "":
		q.Sort = repository.SortPriceAsc
	case repository.SortPriceAsc, repository.SortPriceDesc:
	default:
		return nil, &ValidationError{Fields: map[string]string{
			"sort": "must be " + repository.SortPriceAsc + " or " + repository.SortPriceDesc,
		}}
	}

	products, err := s.products.ListProducts(ctx, repository.ProductFilter{
		Featured: q.Featured,
		Category: q.Category,
		Sort:     q.Sort,
		Limit:    PageSize(q.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return views(products), nil
}

// Featured returns the landing-page products.
func (s *CatalogService) Featured(ctx context.Context) ([]ProductView, error) {
	featured := true
	return s.List(ctx, ProductQuery{Featured: &featured, Limit: FeaturedLimit})
}

// Detail returns a product and up to RelatedLimit others from its category.
func (s *CatalogService) Detail(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	related := []models.Product{}
	if product.Category != "" {
		related, err = s.products.ListProducts(ctx, repository.ProductFilter{
			Category:  product.Category,
			ExcludeID: product.ID,
			Limit:     RelatedLimit,
		})
		if err != nil {
			s.logger.Warn("Failed to load related products", zap.String("product_id", id), zap.Error(err))
			related = []models.Product{}
		}
	}

	return &ProductDetail{Product: NewProductView(*product), Related: views(related)}, nil
}

func views(products []models.Product) []ProductView {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductView(p))
	}
	return out
}
