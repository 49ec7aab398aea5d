package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/axellelanca/pitico/cmd"
	"github.com/axellelanca/pitico/internal/api"
)

const shutdownTimeout = 5 * time.Second

// RunServerCmd represents the 'run-server' command.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Starts the Pitico HTTP server.",
	Long: `This command opens the configured store, sets up the HTTP routes
and serves registrations and redirections until it receives SIGINT or SIGTERM.`,
	RunE: func(c *cobra.Command, args []string) error {
		log := cmd.Log.WithField("module", "server")

		svc, repo, err := cmd.OpenService(cmd.Cfg, cmd.Log)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				log.WithError(err).Error("Failed to close store")
			}
		}()

		if cmd.Cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := api.NewRouter(svc, cmd.Log)
		log.Info("API routes configured.")

		serverAddr := fmt.Sprintf(":%d", cmd.Cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Infof("Starting server on %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-serveErr:
			return fmt.Errorf("server failed: %w", err)
		case sig := <-quit:
			log.Infof("Received %s, shutting down server...", sig)
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		log.Info("Server stopped cleanly.")
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
