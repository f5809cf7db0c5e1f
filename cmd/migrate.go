package cmd

import (
	"log"

	"github.com/anoixa/mozaiek/config"
	"github.com/anoixa/mozaiek/internal/app"
	"github.com/spf13/cobra"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update the database schema for the configured database.

Examples:
  mozaiek migrate
  DB_TYPE=postgres DB_HOST=db mozaiek migrate --config /etc/mozaiek/.env`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrate(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	config.InitConfig()

	container := app.NewContainer(config.Get())
	if err := container.InitDatabase(); err != nil {
		return err
	}
	defer container.Close()

	log.Printf("Migrating %s database...", container.GetDatabaseProvider().Name())
	return container.AutoMigrate()
}
