package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"empresaflow/internal/wizard/identity"
	dErrors "empresaflow/pkg/domain-errors"
)

// RUTCommand exposes tax-id normalization and business key derivation.
func RUTCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rut",
		Short: "Normalize RUTs and derive business keys",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "normalize <rut>...",
		Short: "Print each RUT in canonical BODY-DV form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				normalized, ok := identity.Normalize(raw)
				if !ok {
					return dErrors.Newf(dErrors.CodeValidation, "%q has too few usable characters", raw)
				}
				fmt.Fprintln(cmd.OutOrStdout(), normalized)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "key <rut>...",
		Short: "Print the business key (empkey) derived from each RUT",
		Long: `Print the business key derived from each RUT: the RUT is normalized, its
non-digit characters dropped, the last digit removed and the trailing nine
digits read as a base-10 integer.

Examples:
  empresactl rut key 12.345.678-5
  empresactl rut key 76543210-k 9.876.543-2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				normalized, ok := identity.Normalize(raw)
				if !ok {
					return dErrors.Newf(dErrors.CodeValidation, "%q has too few usable characters", raw)
				}
				key, err := identity.DeriveBusinessKey(normalized)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", normalized, key)
			}
			return nil
		},
	})
	return cmd
}
