package cli

import (
	"github.com/spf13/cobra"

	"github.com/axellelanca/pitico/cmd"
	"github.com/axellelanca/pitico/internal/repository"
)

// MigrateCmd represents the 'migrate' command
// This command handles database schema creation and updates
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates or updates the storage schema.",
	Long: `This command connects to the configured store and prepares it.
For SQLite, GORM automatic migrations create the 'urls' table with unique
indexes on alias and original URL. Redis needs no schema and is only pinged.`,
	RunE: func(c *cobra.Command, args []string) error {
		// Opening the store runs the migrations.
		repo, err := repository.Open(cmd.Cfg, cmd.Log)
		if err != nil {
			return err
		}
		if err := repo.Close(); err != nil {
			return err
		}

		cmd.Log.WithField("module", "migrate").Infof("Storage %q is ready.", cmd.Cfg.Storage.Driver)
		return nil
	},
}

func init() {
	// Register this command with the root command so it can be executed via CLI
	cmd.RootCmd.AddCommand(MigrateCmd)
}
