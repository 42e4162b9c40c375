package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/fly/internal/analyzer"
	"github.com/aqasim81/fly/internal/analyzer/rules"
	"github.com/aqasim81/fly/internal/migration"
	"github.com/aqasim81/fly/internal/planner"
)

var analyzeCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "analyze",
	Short: "Analyze migrations for dangerous operations",
	Long: `Analyze migration SQL for operations that lock tables or discard data.
With a database configured, only pending up SQL (or, with --down, the down
SQL of applied migrations) is checked; otherwise every file is checked.
Nothing is executed.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	analyzeCmd.Flags().Bool("down", false, "analyze down SQL instead of up SQL")
	analyzeCmd.Flags().Bool("fail-on-high", false, "exit with non-zero code if high/critical findings exist")
	rootCmd.AddCommand(analyzeCmd)
}

// errHighSeverityFindings is returned when --fail-on-high is set and high/critical findings exist.
var errHighSeverityFindings = errors.New("high or critical severity findings detected")

func runAnalyze(cmd *cobra.Command, _ []string) error {
	down, _ := cmd.Flags().GetBool("down")

	scripts, err := scriptsToAnalyze(cmd, down)
	if err != nil {
		return err
	}

	if len(scripts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to analyze.")
		return nil
	}

	hasHighOrCritical, err := analyzeScripts(cmd, scripts, true)
	if err != nil {
		return err
	}

	failOnHigh, _ := cmd.Flags().GetBool("fail-on-high")
	if failOnHigh && hasHighOrCritical {
		return errHighSeverityFindings
	}

	return nil
}

// scriptsToAnalyze picks the SQL to check: reconciled against the ledger
// when a database is configured, every file otherwise.
func scriptsToAnalyze(cmd *cobra.Command, down bool) ([]analyzer.Script, error) {
	if AppConfig.DatabaseURL == "" {
		defs, err := migration.LoadFromDir(AppConfig.MigrationsDir)
		if err != nil {
			return nil, fmt.Errorf("loading migrations: %w", err)
		}

		if down {
			return fileDownScripts(defs), nil
		}

		return analyzer.UpScripts(defs), nil
	}

	s, err := openSession(cmd)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if down {
		return appliedDownScripts(s.states), nil
	}

	return analyzer.UpScripts(planner.PendingDefinitions(s.states)), nil
}

func fileDownScripts(defs []migration.Migration) []analyzer.Script {
	scripts := make([]analyzer.Script, 0, len(defs))
	for _, d := range defs {
		scripts = append(scripts, analyzer.Script{Name: d.Name, Direction: analyzer.Down, SQL: d.DownSQL})
	}

	return scripts
}

// appliedDownScripts returns the down SQL a rollback could run for every
// migration in the ledger. Changed migrations contribute both versions.
func appliedDownScripts(states []planner.State) []analyzer.Script {
	var scripts []analyzer.Script

	for _, st := range states {
		switch s := st.(type) {
		case planner.Applied:
			scripts = append(scripts, analyzer.Script{Name: s.Name(), Direction: analyzer.Down, SQL: s.Definition.DownSQL})
		case planner.Changed:
			scripts = append(scripts,
				analyzer.Script{Name: s.Name() + " (file)", Direction: analyzer.Down, SQL: s.Definition.DownSQL},
				analyzer.Script{Name: s.Name() + " (recorded)", Direction: analyzer.Down, SQL: s.Record.DownSQL},
			)
		case planner.Removed:
			scripts = append(scripts, analyzer.Script{Name: s.Name() + " (recorded)", Direction: analyzer.Down, SQL: s.Record.DownSQL})
		case planner.Pending:
		}
	}

	return scripts
}

// analyzeScripts runs the default rules over scripts and prints findings.
// Unless reportClean is set, nothing is printed when there are no findings.
// It reports whether any finding is high or critical.
func analyzeScripts(cmd *cobra.Command, scripts []analyzer.Script, reportClean bool) (bool, error) {
	a := analyzer.New(analyzer.WithRegistry(rules.NewDefaultRegistry()))

	results, err := a.AnalyzeAll(scripts)
	if err != nil {
		return false, fmt.Errorf("analyzing migrations: %w", err)
	}

	if !reportClean && countMigrationsWithFindings(results) == 0 {
		return false, nil
	}

	return printAnalysisResults(cmd, results), nil
}

func printAnalysisResults(cmd *cobra.Command, results []analyzer.AnalysisResult) bool {
	out := cmd.OutOrStdout()
	totalFindings := 0
	hasHighOrCritical := false

	for _, r := range results {
		if len(r.Findings) == 0 {
			continue
		}

		fmt.Fprintf(out, "\n=== %s (%s) ===\n", r.Script.Name, r.Script.Direction)

		for _, f := range r.Findings {
			fmt.Fprintf(out, "  [%s] %s\n", f.Severity.Color().Sprint(f.Severity), f.Message)
			fmt.Fprintf(out, "    Table: %s\n", f.Table)
			fmt.Fprintf(out, "    Rule:  %s\n", f.Rule)

			if f.Statement != "" {
				fmt.Fprintf(out, "    SQL:   %s\n", f.Statement)
			}

			fmt.Fprintf(out, "    Fix:   %s\n\n", f.Suggestion)
		}

		totalFindings += len(r.Findings)

		if r.HasHighOrCritical() {
			hasHighOrCritical = true
		}
	}

	if totalFindings == 0 {
		fmt.Fprintln(out, "No dangerous operations detected.")
	} else {
		fmt.Fprintf(out, "Found %d finding(s) across %d migration(s).\n", totalFindings, countMigrationsWithFindings(results))
	}

	return hasHighOrCritical
}

func countMigrationsWithFindings(results []analyzer.AnalysisResult) int {
	count := 0

	for _, r := range results {
		if len(r.Findings) > 0 {
			count++
		}
	}

	return count
}
