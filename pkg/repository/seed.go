package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/models"
)

var seedProducts = []models.Product{
	{ID: "chair-comfort-handy", Name: "Comfort Handy Craft", Price: 42, Description: "Solid wood lounge chair with woven seat.", StockLevel: 12, DiscountPercentage: 10, IsFeatured: true, Category: "Chair", ImageURL: "/images/chair-comfort-handy.png"},
	{ID: "chair-cantilever", Name: "Cantilever Chair", Price: 26, Description: "Steel-frame cantilever chair for dining rooms.", StockLevel: 30, IsFeatured: true, Category: "Chair", ImageURL: "/images/chair-cantilever.png"},
	{ID: "chair-office-pro", Name: "Office Pro Chair", Price: 120, Description: "Ergonomic office chair with lumbar support.", StockLevel: 5, DiscountPercentage: 20, Category: "Chair", ImageURL: "/images/chair-office-pro.png"},
	{ID: "chair-armless", Name: "Armless Accent Chair", Price: 65, Description: "Velvet accent chair without arms.", StockLevel: 0, Category: "Chair", ImageURL: "/images/chair-armless.png"},
	{ID: "sofa-vel-elit", Name: "Vel Elit Sofa", Price: 320, Description: "Three-seat sofa in linen.", StockLevel: 4, IsFeatured: true, Category: "Sofa", ImageURL: "/images/sofa-vel-elit.png"},
	{ID: "sofa-ultricies", Name: "Ultricies Condimentum", Price: 450, Description: "Corner sofa with chaise.", StockLevel: 2, DiscountPercentage: 15, Category: "Sofa", ImageURL: "/images/sofa-ultricies.png"},
}

// SeedProducts inserts the demo catalog, skipping products that already exist.
func SeedProducts(ctx context.Context, store ContentStore) (int, error) {
	created := 0
	for _, p := range seedProducts {
		product := p
		err := store.CreateProduct(ctx, &product)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", p.ID, err)
		}
		created++
	}
	return created, nil
}
