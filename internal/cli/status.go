package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aqasim81/fly/internal/report"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `List every migration known to the files or the database with its
state: pending, applied, changed since it was applied, or missing its file.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	statusCmd.Flags().String("format", report.FormatText, "output format (text, json)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format := AppConfig.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return report.Write(cmd.OutOrStdout(), s.states, format, !color.NoColor)
}
