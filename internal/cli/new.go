package cli

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aqasim81/fly/internal/migration"
)

// migrationsFs is where new migration files are written.
var migrationsFs = afero.NewOsFs() //nolint:gochecknoglobals // swapped for an in-memory fs in tests

var newCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "new <name>",
	Short: "Create an empty migration file",
	Long: `Create <unix-seconds>-<name>.sql in the migrations directory with empty
up and down sections. The database is not contacted.`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	path, err := migration.Scaffold(migrationsFs, AppConfig.MigrationsDir, args[0], time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created file %s\n", path)

	return nil
}
