package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rongwang/deductible-server/internal/backend"
	"github.com/rongwang/deductible-server/internal/schema"
)

// SetupDatabase opens the configured backend and brings its schema up to
// date.
func SetupDatabase(ctx context.Context, cfg *Config, log zerolog.Logger) (*backend.Handle, error) {
	kind, err := backend.ParseKind(cfg.Database.Backend)
	if err != nil {
		return nil, err
	}

	h, err := backend.Open(ctx, backend.Options{
		Kind:           kind,
		DSN:            cfg.Database.GetDSN(),
		MaxConns:       cfg.Database.MaxConns,
		Workers:        cfg.Database.Workers,
		AcquireTimeout: cfg.Database.AcquireTimeout,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := schema.Ensure(ctx, h); err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to prepare schema: %w", err)
	}

	log.Info().Str("backend", string(kind)).Msg("database ready")
	return h, nil
}
