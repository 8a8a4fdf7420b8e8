package main

import (
	"github.com/spf13/cobra"

	"github.com/aiox-platform/recall/internal/database"
)

func newMigrateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.Migrations.Path
			}
			return database.RunMigrations(cfg.DB.DSN(), path)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Migrations directory (default MIGRATIONS_PATH)")
	return cmd
}
