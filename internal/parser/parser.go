package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseResult holds the parsed AST and original SQL.
type ParseResult struct {
	Stmts []*pg_query.RawStmt
	SQL   string
}

// Parse parses a PostgreSQL SQL string and returns the AST.
// Returns an empty result (zero statements) for empty or whitespace-only input.
func Parse(sql string) (*ParseResult, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return &ParseResult{SQL: sql}, nil
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	return &ParseResult{
		Stmts: tree.Stmts,
		SQL:   sql,
	}, nil
}

// NonTransactional returns a short description of every statement in sql
// that either cannot run inside a transaction block or would end the
// surrounding transaction early. An empty result means the SQL can be
// applied atomically.
func NonTransactional(sql string) ([]string, error) {
	result, err := Parse(sql)
	if err != nil {
		return nil, err
	}

	var found []string

	for _, stmt := range result.Stmts {
		if desc := nonTransactional(stmt.Stmt); desc != "" {
			found = append(found, desc)
		}
	}

	return found, nil
}

func nonTransactional(node *pg_query.Node) string {
	if node == nil {
		return ""
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_IndexStmt:
		if n.IndexStmt.GetConcurrent() {
			return "CREATE INDEX CONCURRENTLY"
		}
	case *pg_query.Node_DropStmt:
		if n.DropStmt.GetConcurrent() {
			return "DROP INDEX CONCURRENTLY"
		}
	case *pg_query.Node_VacuumStmt:
		return "VACUUM"
	case *pg_query.Node_CreatedbStmt:
		return "CREATE DATABASE"
	case *pg_query.Node_DropdbStmt:
		return "DROP DATABASE"
	case *pg_query.Node_AlterSystemStmt:
		return "ALTER SYSTEM"
	case *pg_query.Node_CreateTableSpaceStmt:
		return "CREATE TABLESPACE"
	case *pg_query.Node_TransactionStmt:
		return "transaction control (" + strings.TrimPrefix(n.TransactionStmt.GetKind().String(), "TRANS_STMT_") + ")"
	}

	return ""
}
