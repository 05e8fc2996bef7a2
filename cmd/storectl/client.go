package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/grpc"
	"github.com/example/storefront/pkg/logger"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

type options struct {
	configPath string
	addr       string
	timeout    time.Duration
}

// session is an open connection to the admin service for one command.
type session struct {
	admin   *grpc.AdminServiceClient
	timeout time.Duration
	close   func()
}

func (s *session) context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

func connect(ctx context.Context, opts *options) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	// The CLI only reports warnings on stderr.
	cfg.Log.Level = "warn"
	cfg.Log.Encoding = "console"
	cfg.Log.OutputPaths = []string{"stderr"}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	if opts.addr != "" {
		host, port, err := net.SplitHostPort(opts.addr)
		if err != nil {
			return nil, fmt.Errorf("invalid --addr: %w", err)
		}
		cfg.Admin.Host = host
		if cfg.Admin.Port, err = strconv.Atoi(port); err != nil {
			return nil, fmt.Errorf("invalid --addr port: %w", err)
		}
	}

	var sd *discovery.ServiceDiscovery
	if cfg.Etcd.Enabled && opts.addr == "" {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd, using configured address", zap.Error(err))
			sd = nil
		}
	}

	clients := grpc.NewClientManager(cfg, log, sd)
	if err := clients.Connect(ctx); err != nil {
		if sd != nil {
			sd.Close()
		}
		return nil, err
	}

	return &session{
		admin:   clients.Admin(),
		timeout: opts.timeout,
		close: func() {
			if err := clients.Close(); err != nil {
				log.Warn("Failed to close connection", zap.Error(err))
			}
			if sd != nil {
				sd.Close()
			}
			log.Sync()
		},
	}, nil
}

// withAdmin runs fn against a freshly connected admin client.
func withAdmin(ctx context.Context, opts *options, fn func(ctx context.Context, admin *grpc.AdminServiceClient) error) error {
	s, err := connect(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close()

	callCtx, cancel := s.context(ctx)
	defer cancel()
	return fn(callCtx, s.admin)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
