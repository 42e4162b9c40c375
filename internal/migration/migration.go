package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Migration is a migration definition: the up/down SQL pair read from a
// single file in the migrations directory.
type Migration struct {
	Name    string // file base name, e.g. "1700000000-create-users.sql"
	UpSQL   string
	DownSQL string
}

// Equal reports whether two definitions have the same name and SQL,
// ignoring surrounding whitespace.
func (m Migration) Equal(other Migration) bool {
	return strings.TrimSpace(m.Name) == strings.TrimSpace(other.Name) &&
		strings.TrimSpace(m.UpSQL) == strings.TrimSpace(other.UpSQL) &&
		strings.TrimSpace(m.DownSQL) == strings.TrimSpace(other.DownSQL)
}

// Checksum returns the SHA-256 hex digest of the up and down SQL.
func (m Migration) Checksum() string {
	return ComputeChecksum(m.UpSQL + "\n-- down\n" + m.DownSQL)
}

// Record is the ledger's copy of a migration as it was when applied.
type Record struct {
	Migration

	ID        int32
	CreatedAt time.Time
}

// ComputeChecksum returns the SHA-256 hex digest of the given SQL string.
func ComputeChecksum(sql string) string {
	h := sha256.Sum256([]byte(sql))

	return hex.EncodeToString(h[:])
}
