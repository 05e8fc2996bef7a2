package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                 string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name               string    `gorm:"type:varchar(200);not null" bson:"name" json:"name"`
	Price              float64   `gorm:"type:decimal(10,2);not null" bson:"price" json:"price"`
	Description        string    `gorm:"type:text" bson:"description" json:"description"`
	StockLevel         int       `gorm:"not null;default:0" bson:"stockLevel" json:"stock_level"`
	DiscountPercentage float64   `gorm:"type:decimal(5,2);default:0" bson:"discountPercentage" json:"discount_percentage"`
	IsFeatured         bool      `gorm:"index" bson:"isFeaturedProduct" json:"is_featured"`
	ImageURL           string    `gorm:"type:varchar(500)" bson:"imageUrl" json:"image_url"`
	Category           string    `gorm:"type:varchar(50);index" bson:"category" json:"category"`
	CreatedAt          time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// DiscountedPrice is the display price after the discount percentage,
// rounded to cents.
func (p *Product) DiscountedPrice() float64 {
	price := decimal.NewFromFloat(p.Price)
	if p.DiscountPercentage <= 0 {
		return price.Round(2).InexactFloat64()
	}
	off := price.Mul(decimal.NewFromFloat(p.DiscountPercentage)).Div(decimal.NewFromInt(100))
	return price.Sub(off).Round(2).InexactFloat64()
}

func (p *Product) InStock() bool {
	return p.StockLevel > 0
}
