package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aqasim81/fly/internal/analyzer"
	"github.com/aqasim81/fly/internal/parser"
)

// check parses a single statement and runs rule against it as part of a
// script with the given direction.
func check(t *testing.T, rule analyzer.Rule, dir analyzer.Direction, sql string) []analyzer.Finding {
	t.Helper()

	result, err := parser.Parse(sql)
	require.NoError(t, err)
	require.Len(t, result.Stmts, 1)

	ctx := &analyzer.RuleContext{
		Script: &analyzer.Script{Name: "1-test.sql", Direction: dir, SQL: sql},
	}

	return rule.Check(result.Stmts[0], ctx)
}
