package database

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
)

// maxConns keeps each invocation on a single connection so the ledger
// reads and the following transaction share one backend.
const maxConns = 1

// Option adjusts the pool configuration before it is opened.
type Option func(*pgxpool.Config)

// WithLogger traces every statement pgx sends through log. Nothing is
// installed unless log has debug enabled.
func WithLogger(log *zap.Logger) Option {
	return func(cfg *pgxpool.Config) {
		if log == nil || !log.Core().Enabled(zap.DebugLevel) {
			return
		}

		cfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   &queryLogger{log: log.Named("pgx")},
			LogLevel: tracelog.LogLevelDebug,
		}
	}
}

// ParseConfig parses databaseURL into a single-connection pool config.
func ParseConfig(databaseURL string, opts ...Option) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
	}

	cfg.MaxConns = maxConns

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg, nil
}

// NewPool opens a pool for databaseURL and pings the server.
func NewPool(ctx context.Context, databaseURL string, opts ...Option) (*pgxpool.Pool, error) {
	cfg, err := ParseConfig(databaseURL, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return pool, nil
}

// queryLogger adapts zap to pgx's tracelog. Every pgx message is
// diagnostic, so all of them land at debug regardless of pgx's level.
type queryLogger struct {
	log *zap.Logger
}

func (l *queryLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	fields := make([]zap.Field, 0, len(data)+1)
	fields = append(fields, zap.Stringer("pgx_level", level))

	for _, key := range slices.Sorted(maps.Keys(data)) {
		fields = append(fields, zap.Any(key, data[key]))
	}

	l.log.Debug(msg, fields...)
}
