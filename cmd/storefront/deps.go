package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/internal/seed"
)

func openStore(ctx context.Context, cfg config.Config) (*storage.Store, error) {
	dialect, err := storage.DialectFor(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, dialect, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to " + dialect.Name)

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// openRedis returns nil when Redis is not configured.
func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	slog.Info("connected to redis", "addr", cfg.RedisAddr)
	return rdb, nil
}

// newVerifier prefers the remote identity provider when both are configured.
func newVerifier(cfg config.Config) port.IdentityVerifier {
	if !cfg.AuthConfigured() {
		slog.Warn("no identity provider configured; every caller is anonymous")
		return rejectAll{}
	}
	if cfg.UserInfoURL != "" {
		return auth.NewRemoteVerifier(cfg.UserInfoURL)
	}
	return auth.NewJWTVerifier(cfg.JWTSecret)
}

type rejectAll struct{}

func (rejectAll) Verify(context.Context, string) (domain.Identity, error) {
	return domain.Identity{}, auth.ErrInvalidToken
}

func seedCatalog(ctx context.Context, store *storage.Store, path string) error {
	catalog, err := seed.Default()
	if path != "" {
		catalog, err = seed.LoadFile(path)
	}
	if err != nil {
		return err
	}

	res, err := store.ImportCatalog(ctx, catalog.Categories, catalog.Products)
	if err != nil {
		return err
	}
	slog.Info("catalog seeded", "categories", res.Categories, "products", res.Products)
	return nil
}
