package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aqasim81/fly/internal/migration"
	"github.com/aqasim81/fly/internal/parser"
	"github.com/aqasim81/fly/internal/planner"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Direction of a ProgressEvent.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// ProgressEvent is emitted for each migration applied or reverted. In dry-run
// mode the only event per migration has StatusSkipped.
type ProgressEvent struct {
	Name      string
	Direction string
	SQL       string
	Status    string
	Duration  time.Duration
	Error     error
}

// Ledger is the record store the executor reconciles against.
type Ledger interface {
	EnsureTable(ctx context.Context) error
	List(ctx context.Context) ([]migration.Record, error)
	Apply(ctx context.Context, m *migration.Migration) (migration.Record, error)
	Rollback(ctx context.Context, name, downSQL string) error
}

// sqlCheckFunc reports statements in sql that cannot run in a transaction.
type sqlCheckFunc func(sql string) ([]string, error)

// Executor plans and runs migrations against a Ledger.
type Executor struct {
	ledger     Ledger
	log        *zap.Logger
	dryRun     bool
	onProgress func(ProgressEvent)
	checkSQL   sqlCheckFunc
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for warnings and debug dumps.
func WithLogger(log *zap.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// WithDryRun enables dry-run mode where no SQL is executed.
func WithDryRun(b bool) Option {
	return func(e *Executor) { e.dryRun = b }
}

// WithProgressCallback sets a function called for each migration processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(e *Executor) { e.onProgress = fn }
}

// New creates an Executor over the given ledger.
func New(ledger Ledger, opts ...Option) *Executor {
	e := &Executor{
		ledger:   ledger,
		checkSQL: parser.NonTransactional,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = zap.NewNop()
	}

	return e
}

// Plan ensures the ledger exists, reads it and reconciles it against defs.
func (e *Executor) Plan(ctx context.Context, defs []migration.Migration) ([]planner.State, error) {
	if err := e.ledger.EnsureTable(ctx); err != nil {
		return nil, err
	}

	records, err := e.ledger.List(ctx)
	if err != nil {
		return nil, err
	}

	if e.log.Core().Enabled(zap.DebugLevel) {
		for _, d := range defs {
			e.log.Debug("definition", zap.String("name", d.Name),
				zap.String("up", d.UpSQL), zap.String("down", d.DownSQL))
		}

		for _, r := range records {
			e.log.Debug("record", zap.Int32("id", r.ID), zap.String("name", r.Name),
				zap.Time("created_at", r.CreatedAt))
		}
	}

	return planner.Reconcile(defs, records), nil
}

// Up applies every pending state in name order and returns how many
// migrations it applied (or would apply in dry-run mode). Changed and
// removed states are logged as warnings and left alone. All pending SQL is
// checked before the first one is applied.
func (e *Executor) Up(ctx context.Context, states []planner.State) (int, error) {
	for _, s := range planner.Drifted(states) {
		e.log.Warn("skipping drifted migration", zap.String("migration", s.String()))
	}

	pending := planner.PendingDefinitions(states)

	for i := range pending {
		if err := e.ensureTransactional(pending[i].Name, pending[i].UpSQL); err != nil {
			return 0, err
		}
	}

	for i := range pending {
		if err := e.applyOne(ctx, &pending[i]); err != nil {
			return i, err
		}
	}

	return len(pending), nil
}

// Down selects one migration to revert according to opts and reverts it.
// It returns the selected rollback, or nil when nothing is applied. Every
// refusal happens before the ledger is touched.
func (e *Executor) Down(ctx context.Context, states []planner.State, opts planner.DownOptions) (*planner.Rollback, error) {
	rb, err := planner.SelectDown(states, opts)
	if err != nil || rb == nil {
		return nil, err
	}

	if err := e.ensureTransactional(rb.Name, rb.DownSQL); err != nil {
		return nil, err
	}

	e.log.Debug("selected rollback", zap.String("migration", rb.Name), zap.Stringer("source", rb.Source))

	if e.dryRun {
		e.fireProgress(ProgressEvent{Name: rb.Name, Direction: DirectionDown, SQL: rb.DownSQL, Status: StatusSkipped})
		return rb, nil
	}

	e.fireProgress(ProgressEvent{Name: rb.Name, Direction: DirectionDown, SQL: rb.DownSQL, Status: StatusStarting})

	start := time.Now()

	if err := e.ledger.Rollback(ctx, rb.Name, rb.DownSQL); err != nil {
		e.fireProgress(ProgressEvent{
			Name:      rb.Name,
			Direction: DirectionDown,
			Status:    StatusFailed,
			Duration:  time.Since(start),
			Error:     err,
		})

		return nil, fmt.Errorf("reverting migration %s: %w", rb.Name, err)
	}

	e.fireProgress(ProgressEvent{
		Name:      rb.Name,
		Direction: DirectionDown,
		Status:    StatusCompleted,
		Duration:  time.Since(start),
	})

	return rb, nil
}

// applyOne executes and records a single definition, firing progress.
func (e *Executor) applyOne(ctx context.Context, m *migration.Migration) error {
	if e.dryRun {
		e.fireProgress(ProgressEvent{Name: m.Name, Direction: DirectionUp, SQL: m.UpSQL, Status: StatusSkipped})
		return nil
	}

	e.fireProgress(ProgressEvent{Name: m.Name, Direction: DirectionUp, SQL: m.UpSQL, Status: StatusStarting})
	e.log.Debug("executing", zap.String("migration", m.Name), zap.String("sql", m.UpSQL))

	start := time.Now()
	rec, err := e.ledger.Apply(ctx, m)
	duration := time.Since(start)

	if err != nil {
		e.fireProgress(ProgressEvent{
			Name:      m.Name,
			Direction: DirectionUp,
			Status:    StatusFailed,
			Duration:  duration,
			Error:     err,
		})

		return fmt.Errorf("applying migration %s: %w", m.Name, err)
	}

	e.log.Debug("recorded", zap.String("migration", rec.Name), zap.Int32("id", rec.ID))

	e.fireProgress(ProgressEvent{
		Name:      m.Name,
		Direction: DirectionUp,
		Status:    StatusCompleted,
		Duration:  duration,
	})

	return nil
}

func (e *Executor) ensureTransactional(name, sql string) error {
	found, err := e.checkSQL(sql)
	if err != nil {
		return fmt.Errorf("checking migration %s: %w", name, err)
	}

	if len(found) > 0 {
		return fmt.Errorf("migration %s: %w: %s", name, ErrNonTransactional, strings.Join(found, ", "))
	}

	return nil
}

func (e *Executor) fireProgress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}
