package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-payment-links/app/repository"
	"github.com/vibast-solutions/ms-go-payment-links/config"
	"github.com/vibast-solutions/ms-go-payment-links/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database schema migrations",
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	if err := repository.RunMigrations(cfg.MySQL.DSN, migrations.FS); err != nil {
		logrus.WithError(err).Fatal("Failed to apply migrations")
	}
}
