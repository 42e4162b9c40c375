package tracker

// createSchemaSQL is the DDL for the migrations ledger table.
const createSchemaSQL = `CREATE TABLE IF NOT EXISTS migrations (
    id          SERIAL PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    up_sql      TEXT NOT NULL,
    down_sql    TEXT NOT NULL,
    created_at  TIMESTAMP NOT NULL DEFAULT NOW()
)`

const (
	listSQL   = `SELECT id, name, up_sql, down_sql, created_at FROM migrations`
	insertSQL = `INSERT INTO migrations (name, up_sql, down_sql) VALUES ($1, $2, $3) RETURNING id, created_at`
	deleteSQL = `DELETE FROM migrations WHERE name = $1`
)
