package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/fly/internal/analyzer"
	"github.com/aqasim81/fly/internal/executor"
	"github.com/aqasim81/fly/internal/planner"
)

// errDangerousMigrations is returned when up is blocked by high/critical findings.
var errDangerousMigrations = errors.New("up aborted: dangerous migrations detected (drop --fail-on-high to apply anyway)")

var upCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "up",
	Short: "Apply pending migrations",
	Long: `Apply every pending migration in name order, each in its own
transaction. Migrations whose file changed or disappeared since they were
applied are reported and left alone.`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	upCmd.Flags().Bool("dry-run", false, "print the SQL that would be applied without executing it")
	upCmd.Flags().Bool("fail-on-high", false, "refuse to apply when high/critical findings exist")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	failOnHigh, _ := cmd.Flags().GetBool("fail-on-high")
	out := cmd.OutOrStdout()

	s, err := openSession(cmd,
		executor.WithDryRun(dryRun),
		executor.WithProgressCallback(printProgress(out)),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	pending := planner.PendingDefinitions(s.states)
	if len(pending) > 0 {
		blocked, err := analyzeScripts(cmd, analyzer.UpScripts(pending), false)
		if err != nil {
			return err
		}

		if blocked && failOnHigh {
			return errDangerousMigrations
		}
	}

	n, err := s.exec.Up(commandContext(cmd), s.states)
	if err != nil {
		return err
	}

	if n == 0 {
		fmt.Fprintln(out, "database is up to date")
	}

	return nil
}
