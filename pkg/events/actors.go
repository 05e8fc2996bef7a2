package events

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

const auditService = "storefront"

// AuditActor writes one audit log entry per event.
type AuditActor struct {
	store   repository.AuditStore
	timeout time.Duration
	logger  *zap.Logger
}

func (a *AuditActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		a.logger.Info("Audit actor started")

	case *actor.Stopping:
		a.logger.Info("Audit actor stopping")

	default:
		entry := auditEntry(msg)
		if entry == nil {
			return
		}
		writeCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.store.CreateAuditLog(writeCtx, entry); err != nil {
			a.logger.Error("Failed to write audit log",
				zap.String("action", entry.Action),
				zap.String("entity_id", entry.EntityID),
				zap.Error(err))
		}
	}
}

func auditEntry(msg interface{}) *models.AuditLog {
	switch m := msg.(type) {
	case *OrderPlaced:
		return &models.AuditLog{
			Service:  auditService,
			Action:   "order.placed",
			EntityID: m.Order.ID,
			Data: map[string]interface{}{
				"email":          m.Order.Email,
				"amount":         m.Order.Amount,
				"currency":       m.Order.Currency,
				"payment_method": m.Order.PaymentMethod,
				"items":          len(m.Order.Items),
			},
		}
	case *OrderStatusChanged:
		return &models.AuditLog{
			Service:  auditService,
			Action:   "order.status_changed",
			EntityID: m.OrderID,
			Data:     map[string]interface{}{"from": m.From, "to": m.To},
		}
	case *UserSignedUp:
		return &models.AuditLog{
			Service:  auditService,
			Action:   "user.signed_up",
			EntityID: m.UserID,
			Data:     map[string]interface{}{"email": m.Email},
		}
	case *MessageReceived:
		return &models.AuditLog{
			Service:  auditService,
			Action:   "message.received",
			EntityID: m.MessageID,
			Data:     map[string]interface{}{"email": m.Email},
		}
	case *StockAdjusted:
		return &models.AuditLog{
			Service:  auditService,
			Action:   "product.stock_adjusted",
			EntityID: m.ProductID,
			Data:     map[string]interface{}{"delta": m.Delta, "stock_level": m.StockLevel},
		}
	}
	return nil
}

// NotificationActor tells customers about their orders. Delivery is a log
// line; there is no mail transport.
type NotificationActor struct {
	logger *zap.Logger
}

func (a *NotificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *OrderPlaced:
		a.logger.Info("Sending notification",
			zap.String("recipient", msg.Order.Email),
			zap.String("type", "order_confirmation"),
			zap.String("order_id", msg.Order.ID),
			zap.Float64("amount", msg.Order.Amount))

	case *OrderStatusChanged:
		a.logger.Info("Sending notification",
			zap.String("recipient", msg.Email),
			zap.String("type", "order_status"),
			zap.String("order_id", msg.OrderID),
			zap.String("status", msg.To))

	case *UserSignedUp:
		a.logger.Info("Sending notification",
			zap.String("recipient", msg.Email),
			zap.String("type", "welcome"))

	case *actor.Started:
		a.logger.Info("Notification actor started")
	}
}
