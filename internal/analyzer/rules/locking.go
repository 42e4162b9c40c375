package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/fly/internal/analyzer"
)

// CreateIndexRule flags CREATE INDEX without CONCURRENTLY. Concurrent index
// builds cannot run inside a migration transaction, so the finding points at
// a separate out-of-band step instead.
type CreateIndexRule struct{}

// NewCreateIndexRule creates a new CreateIndexRule.
func NewCreateIndexRule() *CreateIndexRule { return &CreateIndexRule{} }

// ID returns the rule identifier.
func (r *CreateIndexRule) ID() string { return "create-index-blocking" }

// Check examines a statement for a blocking CREATE INDEX.
func (r *CreateIndexRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_IndexStmt)
	if !ok || node.IndexStmt.Concurrent {
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.High,
		Table:      analyzer.TableName(node.IndexStmt.Relation),
		Message:    "CREATE INDEX blocks writes to the table until the build finishes",
		Suggestion: "Build large indexes with CREATE INDEX CONCURRENTLY outside fly, then record the migration",
		LockType:   "SHARE",
		StmtIndex:  ctx.StmtIndex,
	}}
}

// LockTableRule flags explicit LOCK TABLE statements. The lock is held until
// the migration transaction commits.
type LockTableRule struct{}

// NewLockTableRule creates a new LockTableRule.
func NewLockTableRule() *LockTableRule { return &LockTableRule{} }

// ID returns the rule identifier.
func (r *LockTableRule) ID() string { return "lock-table" }

// Check returns one finding per locked relation.
func (r *LockTableRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_LockStmt)
	if !ok {
		return nil
	}

	var findings []analyzer.Finding

	for _, rel := range node.LockStmt.Relations {
		rv, ok := rel.Node.(*pg_query.Node_RangeVar)
		if !ok {
			continue
		}

		findings = append(findings, analyzer.Finding{
			Rule:       r.ID(),
			Severity:   analyzer.High,
			Table:      analyzer.TableName(rv.RangeVar),
			Message:    "LOCK TABLE holds its lock until the migration commits",
			Suggestion: "Drop the explicit lock; the statements that follow take the locks they need",
			LockType:   "EXPLICIT",
			StmtIndex:  ctx.StmtIndex,
		})
	}

	return findings
}

// AlterColumnTypeRule flags ALTER COLUMN ... TYPE, which rewrites the table.
type AlterColumnTypeRule struct{}

// NewAlterColumnTypeRule creates a new AlterColumnTypeRule.
func NewAlterColumnTypeRule() *AlterColumnTypeRule { return &AlterColumnTypeRule{} }

// ID returns the rule identifier.
func (r *AlterColumnTypeRule) ID() string { return "alter-column-type" }

// Check returns one finding per column type change.
func (r *AlterColumnTypeRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	alt, cmds := alterTableCmds(stmt, pg_query.AlterTableType_AT_AlterColumnType)

	findings := make([]analyzer.Finding, 0, len(cmds))

	for _, cmd := range cmds {
		findings = append(findings, analyzer.Finding{
			Rule:       r.ID(),
			Severity:   analyzer.High,
			Table:      analyzer.TableName(alt.GetRelation()),
			Message:    "changing the type of column " + cmd.Name + " rewrites the table under an ACCESS EXCLUSIVE lock",
			Suggestion: "Add a column with the new type, backfill it, then switch readers over",
			LockType:   "ACCESS EXCLUSIVE",
			StmtIndex:  ctx.StmtIndex,
		})
	}

	return findings
}

// alterTableCmds returns the ALTER TABLE statement and those of its
// subcommands that have the given subtype.
func alterTableCmds(stmt *pg_query.RawStmt, subtype pg_query.AlterTableType) (*pg_query.AlterTableStmt, []*pg_query.AlterTableCmd) {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_AlterTableStmt)
	if !ok {
		return nil, nil
	}

	var cmds []*pg_query.AlterTableCmd

	for _, n := range node.AlterTableStmt.Cmds {
		cmd, ok := n.Node.(*pg_query.Node_AlterTableCmd)
		if !ok || cmd.AlterTableCmd.Subtype != subtype {
			continue
		}

		cmds = append(cmds, cmd.AlterTableCmd)
	}

	return node.AlterTableStmt, cmds
}
