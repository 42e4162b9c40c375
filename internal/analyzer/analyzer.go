package analyzer

import (
	"fmt"

	"github.com/aqasim81/fly/internal/migration"
	"github.com/aqasim81/fly/internal/parser"
)

// Direction says which half of a migration a Script holds.
type Direction string

// Script directions.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Script is one block of SQL to analyze, attributed to a migration.
type Script struct {
	Name      string
	Direction Direction
	SQL       string
}

// UpScripts returns the up SQL of each migration.
func UpScripts(ms []migration.Migration) []Script {
	scripts := make([]Script, 0, len(ms))
	for _, m := range ms {
		scripts = append(scripts, Script{Name: m.Name, Direction: Up, SQL: m.UpSQL})
	}

	return scripts
}

// Option configures the Analyzer.
type Option func(*Analyzer)

// Analyzer runs registered rules against parsed SQL.
type Analyzer struct {
	registry *Registry
	parseFn  func(string) (*parser.ParseResult, error)
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		registry: NewRegistry(),
		parseFn:  parser.Parse,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithRegistry sets a custom rule registry.
func WithRegistry(r *Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// WithParser overrides the SQL parser function (useful for testing).
func WithParser(fn func(string) (*parser.ParseResult, error)) Option {
	return func(a *Analyzer) { a.parseFn = fn }
}

// Analyze parses and analyzes a single script, returning all findings.
func (a *Analyzer) Analyze(s *Script) (*AnalysisResult, error) {
	result, err := a.parseFn(s.SQL)
	if err != nil {
		return nil, fmt.Errorf("parsing %s sql of %s: %w", s.Direction, s.Name, err)
	}

	var findings []Finding

	maxSeverity := Safe

	for i, stmt := range result.Stmts {
		ctx := &RuleContext{
			Script:    s,
			StmtIndex: i,
		}

		stmtSQL := ExtractStmtSQL(result.Stmts, i, result.SQL)

		for _, rule := range a.registry.Rules() {
			for _, f := range rule.Check(stmt, ctx) {
				if f.Statement == "" {
					f.Statement = TruncateSQL(stmtSQL, maxStatementLen)
				}

				if f.Severity > maxSeverity {
					maxSeverity = f.Severity
				}

				findings = append(findings, f)
			}
		}
	}

	return &AnalysisResult{
		Script:      s,
		Findings:    findings,
		MaxSeverity: maxSeverity,
	}, nil
}

// AnalyzeAll analyzes multiple scripts and returns results for each.
func (a *Analyzer) AnalyzeAll(scripts []Script) ([]AnalysisResult, error) {
	results := make([]AnalysisResult, 0, len(scripts))

	for i := range scripts {
		r, err := a.Analyze(&scripts[i])
		if err != nil {
			return nil, err
		}

		results = append(results, *r)
	}

	return results, nil
}
