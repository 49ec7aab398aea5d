package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/axellelanca/pitico/cmd"
	"github.com/axellelanca/pitico/internal/services"
)

var registerURLFlag string

// RegisterCmd represents the 'register' command
var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Registers a URL and prints its alias.",
	Long: `This command registers the given URL in the configured store and prints
the alias it is reachable under. Registering a URL twice returns the same alias.

Example:
  pitico register --url="example.com/a"`,
	RunE: func(c *cobra.Command, args []string) error {
		svc, repo, err := cmd.OpenService(cmd.Cfg, cmd.Log)
		if err != nil {
			return err
		}
		defer repo.Close()

		return runRegister(c.Context(), c.OutOrStdout(), svc, cmd.Cfg.Server.BaseURL, registerURLFlag)
	},
}

func runRegister(ctx context.Context, out io.Writer, svc *services.URLService, baseURL, originalURL string) error {
	reg, err := svc.Register(ctx, originalURL)
	if err != nil {
		return fmt.Errorf("failed to register URL: %w", err)
	}

	if reg.Existing {
		fmt.Fprintf(out, "URL %q already registered.\n", reg.Record.OriginalURL)
	} else {
		fmt.Fprintf(out, "URL registered successfully.\n")
	}
	fmt.Fprintf(out, "Alias: %s\n", reg.Record.Alias)
	fmt.Fprintf(out, "Short URL: %s/%s\n", baseURL, reg.Record.Alias)
	return nil
}

func init() {
	RegisterCmd.Flags().StringVar(&registerURLFlag, "url", "", "The URL to register")
	_ = RegisterCmd.MarkFlagRequired("url")

	cmd.RootCmd.AddCommand(RegisterCmd)
}
