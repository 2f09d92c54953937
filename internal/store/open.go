package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/myrobot/academy/internal/db"
)

type BackendConfig struct {
	Kind         string // sqlite | redis | memory
	DatabasePath string
	RedisURL     string
	RedisPrefix  string
}

// OpenBackend connects the configured backend. The returned func releases it.
func OpenBackend(ctx context.Context, cfg BackendConfig, log zerolog.Logger) (Backend, func() error, error) {
	switch cfg.Kind {
	case "", "sqlite":
		conn, err := db.Open(cfg.DatabasePath, log)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, nil, err
		}
		return NewSQLBackend(conn), sqlDB.Close, nil
	case "redis":
		rdb, err := NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisBackend(rdb, cfg.RedisPrefix), rdb.Close, nil
	case "memory":
		log.Warn().Msg("memory store: records are lost on exit")
		return NewMemoryBackend(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Kind)
	}
}
