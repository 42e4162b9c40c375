package cli

import (
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aqasim81/fly/internal/config"
	"github.com/aqasim81/fly/internal/database"
	"github.com/aqasim81/fly/internal/executor"
	"github.com/aqasim81/fly/internal/migration"
	"github.com/aqasim81/fly/internal/planner"
	"github.com/aqasim81/fly/internal/tracker"
)

// session is one connected invocation: the pool, the executor over it,
// and the states reconciled at start-up.
type session struct {
	pool   *pgxpool.Pool
	exec   *executor.Executor
	states []planner.State
}

// openSession loads the migration files, connects, and reconciles them
// with the ledger. Callers must Close the session.
func openSession(cmd *cobra.Command, opts ...executor.Option) (*session, error) {
	cfg := AppConfig

	if err := cfg.RequireDatabaseURL(); err != nil {
		return nil, err
	}

	defs, err := migration.LoadFromDir(cfg.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	ctx := commandContext(cmd)
	log := newLogger(cmd)

	log.Debug("connecting", zap.String("database", config.RedactURL(cfg.DatabaseURL)))

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	opts = append([]executor.Option{executor.WithLogger(log)}, opts...)
	exec := executor.New(tracker.New(pool, log), opts...)

	states, err := exec.Plan(ctx, defs)
	if err != nil {
		pool.Close()

		return nil, err
	}

	return &session{pool: pool, exec: exec, states: states}, nil
}

// Close releases the connection pool.
func (s *session) Close() {
	s.pool.Close()
}

// printProgress returns a progress callback that prints one line per
// migration as it starts, plus the SQL when nothing is executed.
func printProgress(out io.Writer) func(executor.ProgressEvent) {
	return func(ev executor.ProgressEvent) {
		doing, would := "applying", "would apply"
		if ev.Direction == executor.DirectionDown {
			doing, would = "reverting", "would revert"
		}

		switch ev.Status {
		case executor.StatusStarting:
			fmt.Fprintf(out, "%s %s\n", doing, ev.Name)
		case executor.StatusSkipped:
			fmt.Fprintf(out, "%s %s\n%s\n", would, ev.Name, ev.SQL)
		case executor.StatusCompleted, executor.StatusFailed:
		}
	}
}
