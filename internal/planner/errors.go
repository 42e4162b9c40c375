package planner

import "errors"

// Operator errors raised while choosing a rollback. All of them are
// detected before the database is touched.
var (
	ErrConflictingFlags  = errors.New("cannot specify both --recover and --ignore-changed")
	ErrMigrationNotFound = errors.New("couldn't find migration")
	ErrPendingRollback   = errors.New("can't roll back a pending migration")
	ErrChangedMigration  = errors.New("migration has changed since it was applied")
	ErrRemovedMigration  = errors.New("migration file has been removed")
)
