package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AdminServiceClient is the typed client for the admin service.
type AdminServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAdminServiceClient wraps a connection to the admin service.
func NewAdminServiceClient(cc grpc.ClientConnInterface) *AdminServiceClient {
	return &AdminServiceClient{cc: cc}
}

func (c *AdminServiceClient) call(ctx context.Context, method string, in interface{}, dest interface{}) error {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return err
	}
	return fromStruct(out, dest)
}

// GetProduct fetches a product by id.
func (c *AdminServiceClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.call(ctx, "GetProduct", wrapperspb.String(id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustStock adds delta to a product's stock level.
func (c *AdminServiceClient) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"id": id, "delta": delta})
	if err != nil {
		return nil, err
	}
	var product models.Product
	if err := c.call(ctx, "AdjustStock", in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetOrder fetches an order by id.
func (c *AdminServiceClient) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := c.call(ctx, "GetOrder", wrapperspb.String(id), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders fetches a page of orders.
func (c *AdminServiceClient) ListOrders(ctx context.Context, q service.OrderQuery) (*service.OrderPage, error) {
	in, err := structpb.NewStruct(map[string]interface{}{
		"email":     q.Email,
		"status":    q.Status,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
	if err != nil {
		return nil, err
	}
	var page service.OrderPage
	if err := c.call(ctx, "ListOrders", in, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateOrderStatus moves an order to status.
func (c *AdminServiceClient) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"id": id, "status": status})
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := c.call(ctx, "UpdateOrderStatus", in, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListAuditLogs fetches the audit trail of an entity.
func (c *AdminServiceClient) ListAuditLogs(ctx context.Context, entityID string, limit int64) ([]*models.AuditLog, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"entity_id": entityID, "limit": limit})
	if err != nil {
		return nil, err
	}
	var out struct {
		Logs []*models.AuditLog `json:"logs"`
	}
	if err := c.call(ctx, "ListAuditLogs", in, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// ClientManager manages the connection to the admin service
type ClientManager struct {
	config    *config.Config
	discovery *discovery.ServiceDiscovery
	logger    *zap.Logger

	adminClient *AdminServiceClient
	adminConn   *grpc.ClientConn
}

// NewClientManager creates a client manager. disc may be nil, in which case
// the configured admin address is used.
func NewClientManager(cfg *config.Config, logger *zap.Logger, disc *discovery.ServiceDiscovery) *ClientManager {
	return &ClientManager{
		config:    cfg,
		discovery: disc,
		logger:    logger,
	}
}

// Connect resolves the admin service and opens a connection to it.
func (m *ClientManager) Connect(ctx context.Context) error {
	target := m.config.Admin.Addr()

	if m.discovery != nil {
		dctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		instances, err := m.discovery.Discover(dctx, m.config.Admin.Name)
		if err == nil && len(instances) > 0 {
			target = instances[0].Addr()
			m.logger.Info("Discovered admin service", zap.String("address", target))
		} else {
			m.logger.Info("Using default address for admin service", zap.String("address", target))
		}
	}

	m.logger.Debug("Connecting to admin service", zap.String("target", target))

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to admin service: %w", err)
	}

	m.adminConn = conn
	m.adminClient = NewAdminServiceClient(conn)
	return nil
}

// Admin returns the admin service client
func (m *ClientManager) Admin() *AdminServiceClient {
	return m.adminClient
}

// Close closes the admin connection
func (m *ClientManager) Close() error {
	if m.adminConn != nil {
		if err := m.adminConn.Close(); err != nil {
			return fmt.Errorf("admin connection close error: %w", err)
		}
	}
	return nil
}
