package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/fly/internal/executor"
	"github.com/aqasim81/fly/internal/planner"
)

var downCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "down [name]",
	Short: "Revert one applied migration",
	Long: `Revert the named migration, or the last applied one when no name is
given. A migration whose file changed since it was applied needs --recover
(run the recorded down SQL) or --ignore-changed (run the file's down SQL);
a migration whose file was deleted needs --recover.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDown,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	downCmd.Flags().BoolP("recover", "r", false, "use the down SQL recorded when the migration was applied")
	downCmd.Flags().BoolP("ignore-changed", "i", false, "use the down SQL from the migration file even if it changed")
	downCmd.Flags().Bool("dry-run", false, "print the SQL that would be reverted without executing it")
	rootCmd.AddCommand(downCmd)
}

func runDown(cmd *cobra.Command, args []string) error {
	opts := downOptions(cmd, args)

	if err := planner.ValidateDownOptions(opts); err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	s, err := openSession(cmd,
		executor.WithDryRun(dryRun),
		executor.WithProgressCallback(printProgress(out)),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	rb, err := s.exec.Down(commandContext(cmd), s.states, opts)
	if err != nil {
		return err
	}

	if rb == nil {
		fmt.Fprintln(out, "no migrations to revert")
	}

	return nil
}

func downOptions(cmd *cobra.Command, args []string) planner.DownOptions {
	var opts planner.DownOptions

	if len(args) > 0 {
		opts.Name = args[0]
	}

	opts.Recover, _ = cmd.Flags().GetBool("recover")
	opts.IgnoreChanged, _ = cmd.Flags().GetBool("ignore-changed")

	return opts
}
