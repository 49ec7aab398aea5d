package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/axellelanca/pitico/internal/config"
	"github.com/axellelanca/pitico/internal/logger"
	"github.com/axellelanca/pitico/internal/repository"
	"github.com/axellelanca/pitico/internal/services"
)

// Cfg is the global variable that will contain the loaded configuration
// It will be accessible to all Cobra commands throughout the application
var Cfg *config.Config

// Log is the application logger, configured from Cfg.Log.
var Log *logrus.Logger

var cfgFile string

// RootCmd is the base command for the CLI application
// All other commands (run-server, register, resolve, list, check, migrate) are added as subcommands
var RootCmd = &cobra.Command{
	Use:   "pitico",
	Short: "A very very simple URL shortener",
	Long: `Pitico maps URLs to short base62 aliases and redirects aliases back
to the URL they were registered for.`,
	SilenceUsage: true,
}

// Execute is the main entry point for the Cobra application
// It is called from 'main.go' and handles command execution and error handling
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	// Subcommands register themselves via their own init() functions.
}

// initConfig loads the configuration and the logger before any command runs.
func initConfig() {
	var err error

	Cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	Log, err = logger.New(Cfg.Log.Level, Cfg.Log.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

// OpenService opens the configured store and builds the URL service on top of it.
// The caller owns the returned repository and must close it.
func OpenService(cfg *config.Config, log *logrus.Logger) (*services.URLService, repository.URLRepository, error) {
	repo, err := repository.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return services.NewURLService(repo, log), repo, nil
}
