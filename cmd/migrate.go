/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"database/sql"

	"github.com/profiledesk/apiserver/internal/db"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(cmd, "up", db.MigrateUp)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(cmd, "down", db.MigrateDown)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func runMigration(cmd *cobra.Command, direction string, apply func(conn *sql.DB, driver string) error) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	conn, err := db.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := apply(conn, cfg.Database.Driver); err != nil {
		return err
	}
	logger.Info("migrations applied", "direction", direction, "driver", cfg.Database.Driver)
	return nil
}
