package models

import (
	"time"
)

const (
	PaymentMethodCard = "creditCard"
	PaymentMethodCash = "cash"

	PaymentStatusPaid           = "paid"
	PaymentStatusCashOnDelivery = "cash on delivery"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              string      `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	UserID          string      `gorm:"type:varchar(36);index" bson:"userId,omitempty" json:"user_id,omitempty"`
	FullName        string      `gorm:"type:varchar(200);not null" bson:"fullName" json:"full_name"`
	Email           string      `gorm:"type:varchar(100);index;not null" bson:"email" json:"email"`
	Phone           string      `gorm:"type:varchar(30)" bson:"phone" json:"phone"`
	Address         string      `gorm:"type:varchar(200)" bson:"address" json:"address"`
	City            string      `gorm:"type:varchar(100)" bson:"city" json:"city"`
	PostalCode      string      `gorm:"type:varchar(20)" bson:"postalCode" json:"postal_code"`
	Country         string      `gorm:"type:varchar(100)" bson:"country" json:"country"`
	PaymentMethod   string      `gorm:"type:varchar(20);not null" bson:"paymentMethod" json:"payment_method"`
	PaymentStatus   string      `gorm:"type:varchar(20);not null" bson:"paymentStatus" json:"payment_status"`
	PaymentIntentID string      `gorm:"type:varchar(100)" bson:"paymentIntentId,omitempty" json:"payment_intent_id,omitempty"`
	IdempotencyKey  *string     `gorm:"type:varchar(100);uniqueIndex" bson:"idempotencyKey,omitempty" json:"-"`
	Currency        string      `gorm:"type:varchar(3)" bson:"currency" json:"currency"`
	Subtotal        float64     `gorm:"type:decimal(10,2)" bson:"subtotal" json:"subtotal"`
	Shipping        float64     `gorm:"type:decimal(10,2)" bson:"shipping" json:"shipping"`
	Amount          float64     `gorm:"type:decimal(10,2)" bson:"amount" json:"amount"`
	Status          string      `gorm:"type:varchar(20);default:'pending';index" bson:"status" json:"status"`
	Items           []OrderItem `gorm:"foreignKey:OrderID" bson:"cartItems" json:"items"`
	CreatedAt       time.Time   `bson:"createdAt" json:"created_at"`
	UpdatedAt       time.Time   `bson:"updatedAt" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID          uint    `gorm:"primaryKey" bson:"-" json:"-"`
	OrderID     string  `gorm:"type:varchar(36);index;not null" bson:"-" json:"-"`
	ProductID   string  `gorm:"type:varchar(36);not null" bson:"product" json:"product_id"`
	ProductName string  `gorm:"type:varchar(200)" bson:"productName" json:"product_name"`
	Quantity    int     `gorm:"not null" bson:"quantity" json:"quantity"`
	Price       float64 `gorm:"type:decimal(10,2)" bson:"price" json:"price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// StockChanges converts line items into per-product stock deltas.
func (o *Order) StockChanges() []StockChange {
	changes := make([]StockChange, 0, len(o.Items))
	for _, item := range o.Items {
		changes = append(changes, StockChange{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return changes
}

// StockChange is a quantity to reserve or release for one product.
type StockChange struct {
	ProductID string
	Quantity  int
}
