package repository

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-roster-api/pkg/cache"
	"github.com/noah-isme/sma-roster-api/pkg/config"
	"github.com/noah-isme/sma-roster-api/pkg/database"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore builds the KV driver selected by STORE_DRIVER. The returned closer
// releases the underlying connection.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (KVStore, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Store.Driver {
	case "", config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return NewMemoryStore(), nopCloser{}, nil
	case config.StoreSQLite:
		db, err := database.NewSQLite(cfg.Store)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store := NewSQLStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("sqlite store ready", zap.String("path", cfg.Store.SQLitePath))
		return store, db, nil
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		store := NewSQLStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("postgres store ready", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))
		return store, db, nil
	case config.StoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		logger.Info("redis store ready", zap.String("host", cfg.Redis.Host), zap.String("prefix", cfg.Redis.KeyPrefix))
		return NewRedisStore(client, cfg.Redis.KeyPrefix), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
