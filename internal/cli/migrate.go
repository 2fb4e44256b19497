package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"empresaflow/internal/platform/postgres"
)

var errDatabaseNotConfigured = errors.New("DATABASE_URL is not set")

// MigrateCommand applies the relational schema.
func MigrateCommand(b Backends) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the empresas, onboarding and history tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if printOnly {
				fmt.Fprint(cmd.OutOrStdout(), postgres.Schema)
				return nil
			}
			ctx := cmd.Context()
			db, err := b.DB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}
