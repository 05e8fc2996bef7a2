package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/storefront/gateway"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/grpc"
	"github.com/example/storefront/pkg/logger"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/service"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront",
		zap.String("name", cfg.Server.Name),
		zap.String("address", cfg.Server.Addr()),
		zap.String("store", cfg.Store.Driver),
		zap.String("sessions", cfg.Store.SessionDriver))

	ctx := context.Background()

	stores, err := openBackends(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open backends", zap.Error(err))
	}

	bus, err := events.NewBus(stores.audit, log.Named("events"))
	if err != nil {
		stores.close(ctx, log)
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	pricing := service.NewPricing(&cfg.Shop)
	payments := payment.New(&cfg.Payment, log.Named("payment"))
	cart := service.NewCartService(stores.content, stores.sessions, pricing, log.Named("cart"))

	gw := gateway.NewGateway(cfg, log, gateway.Services{
		Catalog:  service.NewCatalogService(stores.content, log.Named("catalog")),
		Cart:     cart,
		Checkout: service.NewCheckoutService(cart, stores.content, stores.sessions, payments, bus, log.Named("checkout")),
		Identity: service.NewIdentityService(stores.content, stores.sessions, bus, log.Named("identity")),
		Contact:  service.NewContactService(stores.content, bus, log.Named("contact")),
		Health:   stores.health,
	})
	gw.SetupRoutes()

	admin := grpc.NewAdminServer(&cfg.Admin,
		service.NewAdminService(stores.content, stores.audit, bus, log.Named("admin")), log.Named("admin-grpc"))

	// Start servers in goroutines
	serverErr := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			serverErr <- err
		}
	}()
	go func() {
		if err := admin.Start(); err != nil {
			serverErr <- fmt.Errorf("admin: %w", err)
		}
	}()

	// Register the admin service so storectl can find it
	var (
		sd       *discovery.ServiceDiscovery
		instance = &discovery.ServiceInstance{Name: cfg.Admin.Name, Host: cfg.Admin.Host, Port: cfg.Admin.Port}
	)
	if cfg.Etcd.Enabled {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, log.Named("discovery"))
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			log.Warn("Failed to register admin service", zap.Error(err))
		} else {
			log.Info("Service registered in etcd",
				zap.String("name", instance.Name),
				zap.String("address", instance.Addr()))
		}
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			log.Warn("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}

	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Warn("Gateway shutdown error", zap.Error(err))
	}
	admin.Stop()
	bus.Close()
	stores.close(shutdownCtx, log)

	log.Info("Storefront stopped")
}
