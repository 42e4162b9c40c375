package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/aqasim81/fly/internal/database"
	"github.com/aqasim81/fly/internal/migration"
)

// DB is the subset of *pgxpool.Pool the tracker needs.
type DB interface {
	database.Beginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Tracker manages the migrations ledger table. Every mutation runs the
// schema change and the ledger write in one transaction.
type Tracker struct {
	db  DB
	log *zap.Logger
}

// New creates a Tracker backed by the given pool. A nil logger disables logging.
func New(db DB, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}

	return &Tracker{db: db, log: log}
}

// EnsureTable creates the migrations table if it does not exist.
func (t *Tracker) EnsureTable(ctx context.Context) error {
	if _, err := t.db.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	return nil
}

// List returns every ledger record. Order is unspecified.
func (t *Tracker) List(ctx context.Context) ([]migration.Record, error) {
	rows, err := t.db.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (migration.Record, error) {
		var r migration.Record
		if scanErr := row.Scan(&r.ID, &r.Name, &r.UpSQL, &r.DownSQL, &r.CreatedAt); scanErr != nil {
			return migration.Record{}, fmt.Errorf("scanning migration row: %w", scanErr)
		}

		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning migrations: %w", err)
	}

	return records, nil
}

// Apply runs m.UpSQL and records m in the ledger atomically.
func (t *Tracker) Apply(ctx context.Context, m *migration.Migration) (migration.Record, error) {
	t.log.Debug("inserting migration", zap.String("name", m.Name), zap.String("up_sql", m.UpSQL))

	rec := migration.Record{Migration: *m}

	err := database.ExecInTransaction(ctx, t.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("executing up sql: %w", err)
		}

		err := tx.QueryRow(ctx, insertSQL, m.Name, m.UpSQL, m.DownSQL).Scan(&rec.ID, &rec.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s: %w", ErrDuplicateMigration, m.Name, err)
			}

			return fmt.Errorf("recording migration: %w", err)
		}

		return nil
	})
	if err != nil {
		return migration.Record{}, err
	}

	return rec, nil
}

// Rollback runs downSQL and removes the ledger row for name atomically.
// A missing row is not an error.
func (t *Tracker) Rollback(ctx context.Context, name, downSQL string) error {
	t.log.Debug("rolling back migration", zap.String("name", name), zap.String("down_sql", downSQL))

	return database.ExecInTransaction(ctx, t.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, downSQL); err != nil {
			return fmt.Errorf("executing down sql: %w", err)
		}

		tag, err := tx.Exec(ctx, deleteSQL, name)
		if err != nil {
			return fmt.Errorf("deleting ledger row: %w", err)
		}

		if tag.RowsAffected() == 0 {
			t.log.Debug("no ledger row to delete", zap.String("name", name))
		}

		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
