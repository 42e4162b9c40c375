package tracker

import "errors"

// ErrTableCreation indicates the migrations table could not be created.
var ErrTableCreation = errors.New("creating migrations table")

// ErrDuplicateMigration indicates a migration was applied under a name the
// ledger already holds. This is a bug in the caller, not a retryable condition.
var ErrDuplicateMigration = errors.New("migration already recorded in ledger")

// uniqueViolation is the SQLSTATE PostgreSQL reports for a unique constraint failure.
const uniqueViolation = "23505"
