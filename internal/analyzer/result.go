package analyzer

import "unicode/utf8"

// maxStatementLen bounds the statement text copied into a Finding.
const maxStatementLen = 120

// Finding represents a single dangerous pattern detected in a script.
type Finding struct {
	Rule       string   // Rule ID (e.g., "drop-table")
	Severity   Severity // Danger level
	Table      string   // Affected table name
	Statement  string   // The SQL statement text (truncated for display)
	Message    string   // Human-readable description of the danger
	Suggestion string   // Safe alternative approach
	LockType   string   // PostgreSQL lock type acquired (e.g., "ACCESS EXCLUSIVE")
	StmtIndex  int      // Index in the script's statement list (0-based)
}

// AnalysisResult holds all findings for a single script.
type AnalysisResult struct {
	Script      *Script
	Findings    []Finding
	MaxSeverity Severity // Highest severity across all findings
}

// HasHighOrCritical returns true if any finding is High or Critical severity.
func (r *AnalysisResult) HasHighOrCritical() bool {
	return r.MaxSeverity >= High
}

// TruncateSQL shortens sql to at most maxLen bytes for display, cutting
// on a character boundary. Limits too small to hold an ellipsis return sql
// unchanged.
func TruncateSQL(sql string, maxLen int) string {
	if len(sql) <= maxLen || maxLen < 4 {
		return sql
	}

	n := maxLen - 3
	for n > 0 && !utf8.RuneStart(sql[n]) {
		n--
	}

	return sql[:n] + "..."
}
