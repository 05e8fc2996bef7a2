// Package events runs the storefront's asynchronous side effects (audit
// trail and customer notifications) on a protoactor actor system.
package events

import (
	"time"

	"github.com/example/storefront/pkg/models"
)

// Publisher accepts domain events. Publish never blocks on the side effect.
type Publisher interface {
	Publish(event interface{})
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(interface{}) {}

// OrderPlaced is published after an order is written.
type OrderPlaced struct {
	Order models.Order
}

// OrderStatusChanged is published after an admin status transition.
type OrderStatusChanged struct {
	OrderID string
	Email   string
	From    string
	To      string
	At      time.Time
}

// UserSignedUp is published after signup.
type UserSignedUp struct {
	UserID string
	Name   string
	Email  string
}

// MessageReceived is published after a contact message is stored.
type MessageReceived struct {
	MessageID string
	Name      string
	Email     string
}

// StockAdjusted is published after an admin stock adjustment.
type StockAdjusted struct {
	ProductID  string
	Delta      int
	StockLevel int
}
