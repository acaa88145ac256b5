// Package backend opens the hosted data backend selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/newthinker/signalhub/internal/config"
	"github.com/newthinker/signalhub/internal/store"
	"github.com/newthinker/signalhub/internal/store/postgres"
	"github.com/newthinker/signalhub/internal/store/sqlite"
	"go.uber.org/zap"
)

// Open returns the configured backend, or nil when none is configured or it
// cannot be reached. A nil backend puts the service in mock mode.
func Open(ctx context.Context, cfg config.BackendConfig, logger *zap.Logger) store.Backend {
	if logger == nil {
		logger = zap.NewNop()
	}

	b, err := Dial(ctx, cfg)
	if err != nil {
		logger.Warn("backend unavailable, using mock data",
			zap.String("provider", cfg.ResolveBackend()),
			zap.Error(err))
		return nil
	}
	if b == nil {
		logger.Info("no backend configured, using mock data")
		return nil
	}

	logger.Info("backend connected", zap.String("provider", b.Name()))
	return b
}

// Dial is Open without the silent degradation: connection errors are
// returned. Commands that need a real database (migrate) use it directly.
func Dial(ctx context.Context, cfg config.BackendConfig) (store.Backend, error) {
	switch provider := cfg.ResolveBackend(); provider {
	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown backend provider: %s", provider)
	}
}
