// Package cli implements empresactl, the operator command line.
package cli

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"empresaflow/internal/platform/config"
	"empresaflow/internal/platform/logger"
	"empresaflow/internal/platform/postgres"
	"empresaflow/internal/platform/redis"
	"empresaflow/internal/wizard/draft"
)

// Backends opens the stores commands work against. Tests swap them out.
type Backends struct {
	Slots func(ctx context.Context) (draft.Slots, func(), error)
	DB    func(ctx context.Context) (*sqlx.DB, error)
	Log   *slog.Logger
}

// ConfiguredBackends reads the service configuration to reach Redis and Postgres.
func ConfiguredBackends() Backends {
	return Backends{
		Slots: func(ctx context.Context) (draft.Slots, func(), error) {
			cfg, err := config.FromEnv()
			if err != nil {
				return nil, nil, err
			}
			client, err := redis.New(ctx, cfg.Redis)
			if err != nil {
				return nil, nil, err
			}
			if client == nil {
				return nil, nil, errRedisNotConfigured
			}
			return draft.NewRedisSlots(client, draft.WithTTL(cfg.Redis.DraftTTL)), func() { _ = client.Close() }, nil
		},
		DB: func(ctx context.Context) (*sqlx.DB, error) {
			cfg, err := config.FromEnv()
			if err != nil {
				return nil, err
			}
			if cfg.Database.URL == "" {
				return nil, errDatabaseNotConfigured
			}
			return postgres.Open(ctx, cfg.Database)
		},
		Log: logger.New(),
	}
}

// NewRootCommand builds the empresactl command tree.
func NewRootCommand(b Backends) *cobra.Command {
	root := &cobra.Command{
		Use:           "empresactl",
		Short:         "Operate the empresaflow company registration service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		RUTCommand(),
		DraftCommand(b),
		MigrateCommand(b),
	)
	return root
}
