package store

import (
	"context"

	"mymanga/internal/domain"

	"github.com/pkg/errors"
)

// KV is the key-value capability persisted preferences are written through.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// New opens the backend named by cfg.Storage.
func New(ctx context.Context, cfg *domain.Config) (KV, error) {
	switch cfg.Storage {
	case "", "sqlite":
		return NewSQLite(ctx, cfg.DatabasePath)
	case "redis":
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage)
	}
}
