package rules

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/fly/internal/analyzer"
)

// DropTableRule flags statements that discard table data: DROP TABLE,
// TRUNCATE and ALTER TABLE ... DROP COLUMN. Down scripts commonly contain
// these when they revert a CREATE, so the message names the direction.
type DropTableRule struct{}

// NewDropTableRule creates a new DropTableRule.
func NewDropTableRule() *DropTableRule { return &DropTableRule{} }

// ID returns the rule identifier.
func (r *DropTableRule) ID() string { return "data-loss" }

// Check examines a statement for data-discarding operations.
func (r *DropTableRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	var table, what string

	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_DropStmt:
		if node.DropStmt.RemoveType != pg_query.ObjectType_OBJECT_TABLE {
			return nil
		}

		table, what = strings.Join(dropNames(node.DropStmt), ", "), "DROP TABLE"
	case *pg_query.Node_TruncateStmt:
		table, what = strings.Join(relationNames(node.TruncateStmt.Relations), ", "), "TRUNCATE"
	case *pg_query.Node_AlterTableStmt:
		alt, cmds := alterTableCmds(stmt, pg_query.AlterTableType_AT_DropColumn)
		if len(cmds) == 0 {
			return nil
		}

		cols := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			cols = append(cols, cmd.Name)
		}

		table, what = analyzer.TableName(alt.GetRelation()), "DROP COLUMN "+strings.Join(cols, ", ")
	default:
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Critical,
		Table:      table,
		Message:    what + " permanently discards data when the " + direction(ctx) + " script runs",
		Suggestion: "Take a backup first and make sure no running code still reads this data",
		LockType:   "ACCESS EXCLUSIVE",
		StmtIndex:  ctx.StmtIndex,
	}}
}

// RenameRule flags renames of tables and columns, which break clients still
// using the old name.
type RenameRule struct{}

// NewRenameRule creates a new RenameRule.
func NewRenameRule() *RenameRule { return &RenameRule{} }

// ID returns the rule identifier.
func (r *RenameRule) ID() string { return "rename" }

// Check examines a statement for RENAME TABLE or RENAME COLUMN.
func (r *RenameRule) Check(stmt *pg_query.RawStmt, ctx *analyzer.RuleContext) []analyzer.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_RenameStmt)
	if !ok {
		return nil
	}

	rename := node.RenameStmt

	var kind string

	switch rename.RenameType {
	case pg_query.ObjectType_OBJECT_TABLE:
		kind = "table"
	case pg_query.ObjectType_OBJECT_COLUMN:
		kind = "column " + rename.Subname
	default:
		return nil
	}

	return []analyzer.Finding{{
		Rule:       r.ID(),
		Severity:   analyzer.Medium,
		Table:      analyzer.TableName(rename.Relation),
		Message:    "renaming " + kind + " to " + rename.Newname + " breaks clients using the old name",
		Suggestion: "Deploy code that tolerates both names before renaming",
		LockType:   "ACCESS EXCLUSIVE",
		StmtIndex:  ctx.StmtIndex,
	}}
}

func direction(ctx *analyzer.RuleContext) string {
	if ctx.Script == nil || ctx.Script.Direction == "" {
		return string(analyzer.Up)
	}

	return string(ctx.Script.Direction)
}

func relationNames(rels []*pg_query.Node) []string {
	var names []string

	for _, rel := range rels {
		if rv, ok := rel.Node.(*pg_query.Node_RangeVar); ok {
			names = append(names, analyzer.TableName(rv.RangeVar))
		}
	}

	return names
}

func dropNames(drop *pg_query.DropStmt) []string {
	var names []string

	for _, obj := range drop.Objects {
		list, ok := obj.Node.(*pg_query.Node_List)
		if !ok {
			continue
		}

		var parts []string

		for _, item := range list.List.Items {
			if s, ok := item.Node.(*pg_query.Node_String_); ok {
				parts = append(parts, s.String_.Sval)
			}
		}

		if len(parts) > 0 {
			names = append(names, strings.Join(parts, "."))
		}
	}

	return names
}
