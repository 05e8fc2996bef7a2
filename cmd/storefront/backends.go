package main

import (
	"context"
	"fmt"

	"github.com/example/storefront/gateway"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

// backends are the opened stores. closers run in reverse order on shutdown,
// so a connection shared by two stores is closed once.
type backends struct {
	content  repository.ContentStore
	audit    repository.AuditStore
	sessions repository.SessionStore
	health   map[string]gateway.Pinger
	closers  []func(context.Context) error
}

func openBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backends, error) {
	b := &backends{health: make(map[string]gateway.Pinger)}

	if err := b.openContent(ctx, cfg, logger); err != nil {
		b.close(ctx, logger)
		return nil, err
	}
	b.openSessions(cfg)

	if cfg.Store.Seed {
		created, err := repository.SeedProducts(ctx, b.content)
		if err != nil {
			b.close(ctx, logger)
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		logger.Info("Catalog seeded", zap.Int("created", created))
	}
	return b, nil
}

func (b *backends) openContent(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	switch cfg.Store.Driver {
	case "memory":
		store := repository.NewMemoryStore()
		b.content, b.audit = store, store
		return nil

	case "mongodb":
		repo, err := b.openMongo(cfg)
		if err != nil {
			return err
		}
		store := repository.NewMongoStore(repo, logger.Named("mongo"))
		if err := store.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
		b.content = store
		return nil

	case "mysql":
		store, err := repository.NewSQLStore(&cfg.MySQL)
		if err != nil {
			return err
		}
		b.closers = append(b.closers, store.Close)
		b.health["mysql"] = store
		if err := store.Migrate(); err != nil {
			return err
		}
		b.content = store

		// Audit entries stay in MongoDB alongside the relational content.
		if _, err := b.openMongo(cfg); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (b *backends) openMongo(cfg *config.Config) (*repository.MongoRepository, error) {
	repo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, repo.Close)
	b.health["mongodb"] = repo
	b.audit = repo
	return repo, nil
}

func (b *backends) openSessions(cfg *config.Config) {
	if cfg.Store.SessionDriver == "memory" {
		b.sessions = repository.NewMemorySessionStore()
		return
	}
	redis := repository.NewRedisRepository(&cfg.Redis, &cfg.Session)
	b.sessions = redis
	b.health["redis"] = redis
	b.closers = append(b.closers, func(context.Context) error { return redis.Close() })
}

func (b *backends) close(ctx context.Context, logger *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			logger.Warn("Failed to close backend", zap.Error(err))
		}
	}
	b.closers = nil
}
