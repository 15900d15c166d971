package main

import (
	"fmt"

	"construction-platform/internal/db"
	"construction-platform/pkg/utils"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, closeLogs, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeLogs()
		pg, err := utils.OpenPostgres(cmd.Context(), cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2})
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := db.Migrate(cmd.Context(), pg); err != nil {
			return err
		}
		v, err := db.Version(cmd.Context(), pg)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "version", v)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the applied migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, closeLogs, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeLogs()
		pg, err := utils.OpenPostgres(cmd.Context(), cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2})
		if err != nil {
			return err
		}
		defer pg.Close()

		v, err := db.Version(cmd.Context(), pg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
}
