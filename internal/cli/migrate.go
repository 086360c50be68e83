package cli

import (
	"github.com/spf13/cobra"

	"codesage/api/internal/db"
	"codesage/api/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			log := logging.NewJSON(cmd.OutOrStdout(), cfg.LogLevel).With("service", "codesage")

			conn, err := db.Open(ctx, cfg.DatabaseURL, db.Options{Attempts: cfg.DBConnectAttempts, Logger: log})
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.Migrate(ctx, conn); err != nil {
				return err
			}
			log.Info(ctx, "migrations applied")
			return nil
		},
	}
}
