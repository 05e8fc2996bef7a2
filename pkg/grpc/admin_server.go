package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AdminServer serves the back-office admin service over gRPC.
type AdminServer struct {
	admin  *service.AdminService
	logger *zap.Logger
	config *config.AdminConfig
	server *grpc.Server
}

// NewAdminServer creates the gRPC server with reflection and request logging.
func NewAdminServer(cfg *config.AdminConfig, admin *service.AdminService, logger *zap.Logger) *AdminServer {
	s := &AdminServer{
		admin:  admin,
		logger: logger,
		config: cfg,
	}
	s.server = grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	RegisterAdminServiceServer(s.server, s)
	reflection.Register(s.server)
	return s
}

// Serve blocks until the listener fails or Stop is called.
func (s *AdminServer) Serve(lis net.Listener) error {
	s.logger.Info("Admin service started", zap.String("address", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Start listens on the configured address and serves.
func (s *AdminServer) Start() error {
	lis, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

// Stop waits for in-flight calls and stops the server.
func (s *AdminServer) Stop() {
	s.server.GracefulStop()
}

// GetProduct returns a product and its stock level.
func (s *AdminServer) GetProduct(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	product, err := s.admin.GetProduct(ctx, req.GetValue())
	if err != nil {
		return nil, s.grpcError("get product", err)
	}
	return toStruct(product)
}

// AdjustStock applies {id, delta}. delta must be a whole number.
func (s *AdminServer) AdjustStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	delta, err := intField(req, "delta")
	if err != nil {
		return nil, err
	}
	product, err := s.admin.AdjustStock(ctx, stringField(req, "id"), int(delta))
	if err != nil {
		return nil, s.grpcError("adjust stock", err)
	}
	return toStruct(product)
}

func (s *AdminServer) GetOrder(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	order, err := s.admin.GetOrder(ctx, req.GetValue())
	if err != nil {
		return nil, s.grpcError("get order", err)
	}
	return toStruct(order)
}

// ListOrders pages orders by {status, page, page_size}.
func (s *AdminServer) ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pageNum, err := intField(req, "page")
	if err != nil {
		return nil, err
	}
	pageSize, err := intField(req, "page_size")
	if err != nil {
		return nil, err
	}
	page, err := s.admin.ListOrders(ctx, service.OrderQuery{
		Email:    stringField(req, "email"),
		Status:   stringField(req, "status"),
		Page:     int(pageNum),
		PageSize: int(pageSize),
	})
	if err != nil {
		return nil, s.grpcError("list orders", err)
	}
	return toStruct(page)
}

// UpdateOrderStatus applies {id, status}.
func (s *AdminServer) UpdateOrderStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	order, err := s.admin.UpdateOrderStatus(ctx, stringField(req, "id"), stringField(req, "status"))
	if err != nil {
		return nil, s.grpcError("update order status", err)
	}
	return toStruct(order)
}

func (s *AdminServer) ListAuditLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := intField(req, "limit")
	if err != nil {
		return nil, err
	}
	logs, err := s.admin.ListAuditLogs(ctx, stringField(req, "entity_id"), limit)
	if err != nil {
		return nil, s.grpcError("list audit logs", err)
	}
	return toStruct(map[string]interface{}{"logs": logs})
}

func (s *AdminServer) grpcError(op string, err error) error {
	var (
		verr     *service.ValidationError
		stockErr *repository.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrOrderNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &stockErr), errors.Is(err, service.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, repository.ErrConflict):
		return status.Error(codes.Aborted, "order was modified concurrently")
	}
	s.logger.Error("Admin call failed", zap.String("op", op), zap.Error(err))
	return status.Error(codes.Internal, "failed to "+op)
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("gRPC call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)))
		return resp, err
	}
}

// toStruct converts a value to a Struct through its JSON form.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// fromStruct decodes a Struct into dest through its JSON form.
func fromStruct(s *structpb.Struct, dest interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// maxExactInt is the largest integer a Struct number carries without loss.
const maxExactInt = 1 << 53

// intField reads an optional whole-number field. Fractions, strings and
// values beyond the exact float range are rejected.
func intField(s *structpb.Struct, key string) (int64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return 0, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	f := n.NumberValue
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
	}
	return int64(f), nil
}
