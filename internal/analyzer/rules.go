package analyzer

import (
	"slices"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Rule inspects one parsed statement of a script.
type Rule interface {
	// ID is the kebab-case name printed next to each finding.
	ID() string
	Check(stmt *pg_query.RawStmt, ctx *RuleContext) []Finding
}

// RuleContext tells a rule which script and statement it is looking at.
type RuleContext struct {
	Script    *Script
	StmtIndex int
}

// Registry is an ordered set of rules keyed by ID.
type Registry struct {
	rules []Rule
}

// NewRegistry returns a registry holding rules in order.
func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{}
	for _, rule := range rules {
		r.Register(rule)
	}

	return r
}

// Register adds rule, replacing any rule already registered under its ID.
func (r *Registry) Register(rule Rule) {
	i := slices.IndexFunc(r.rules, func(have Rule) bool { return have.ID() == rule.ID() })
	if i >= 0 {
		r.rules[i] = rule

		return
	}

	r.rules = append(r.rules, rule)
}

// Rules returns the registered rules in registration order.
func (r *Registry) Rules() []Rule {
	return slices.Clone(r.rules)
}

// TableName renders rv as schema.table, or just table when unqualified.
func TableName(rv *pg_query.RangeVar) string {
	switch {
	case rv == nil:
		return "<unknown>"
	case rv.Schemaname == "":
		return rv.Relname
	default:
		return rv.Schemaname + "." + rv.Relname
	}
}

// ExtractStmtSQL returns the source text of stmts[idx]. Statement
// locations index into the trimmed script, which is what the parser saw.
func ExtractStmtSQL(stmts []*pg_query.RawStmt, idx int, fullSQL string) string {
	if idx < 0 || idx >= len(stmts) {
		return ""
	}

	sql := strings.TrimSpace(fullSQL)
	start, end := int(stmts[idx].StmtLocation), len(sql)

	if idx+1 < len(stmts) {
		end = int(stmts[idx+1].StmtLocation)
	}

	if start >= end || end > len(sql) {
		return ""
	}

	return strings.TrimSpace(sql[start:end])
}
