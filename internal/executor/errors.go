package executor

import "errors"

// ErrNonTransactional indicates SQL that cannot be applied atomically, such
// as CREATE INDEX CONCURRENTLY or an explicit COMMIT.
var ErrNonTransactional = errors.New("statement cannot run inside a migration transaction")
