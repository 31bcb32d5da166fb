package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/coursify-backend/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := app.NewLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		svc, err := app.OpenDatabase(cfg, log)
		if err != nil {
			log.Error("Migration failed", "error", err)
			return err
		}
		log.Info("Migration complete", "driver", svc.Driver())
		return svc.Close()
	},
}
