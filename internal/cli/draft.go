package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"empresaflow/internal/wizard/draft"
	"empresaflow/internal/wizard/identity"
)

var errRedisNotConfigured = errors.New("REDIS_URL is not set")

// DraftCommand inspects and clears wizard drafts in the draft store.
func DraftCommand(b Backends) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Inspect or discard a user's company wizard draft",
	}
	cmd.PersistentFlags().StringVar(&owner, "owner", "", "user id owning the draft")
	_ = cmd.MarkPersistentFlagRequired("owner")

	var resolve bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the saved draft as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			slots, closeSlots, err := b.Slots(ctx)
			if err != nil {
				return err
			}
			defer closeSlots()

			d, ok := draft.New(slots, draft.WithLogger(b.Log)).Load(ctx, owner)
			if !ok {
				return fmt.Errorf("no draft for owner %q", owner)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(d); err != nil {
				return err
			}
			if !resolve {
				return nil
			}
			id, err := identity.Resolve(d.State.Document)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "identity: unresolved (%v)\n", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "identity: %s\n", id)
			return nil
		},
	}
	show.Flags().BoolVar(&resolve, "resolve", false, "also print the identity the draft would submit with")

	discard := &cobra.Command{
		Use:   "discard",
		Short: "Delete the saved draft",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			slots, closeSlots, err := b.Slots(ctx)
			if err != nil {
				return err
			}
			defer closeSlots()

			if err := draft.New(slots, draft.WithLogger(b.Log)).Discard(ctx, owner); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "discarded %s\n", draft.SlotKey(owner))
			return nil
		},
	}

	cmd.AddCommand(show, discard)
	return cmd
}
