package cmd

import (
	"fmt"

	"labdesk/app"
	"labdesk/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		// Open migrates on connect
		conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
		if err != nil {
			return err
		}
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
		logger.Info("schema is up to date")
		return nil
	},
}

var (
	adminEmail string
	adminName  string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account and print its generated password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
		if err != nil {
			return err
		}
		if sqlDB, err := conn.DB(); err == nil {
			defer sqlDB.Close()
		}

		pw, err := app.CreateAdmin(cmd.Context(), db.NewRepo(conn), adminEmail, adminName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\npassword: %s\n", adminEmail, pw)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email (required)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "display name")
	_ = createAdminCmd.MarkFlagRequired("email")
}
