package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/axellelanca/pitico/cmd"
	customerrors "github.com/axellelanca/pitico/internal/errors"
	"github.com/axellelanca/pitico/internal/services"
)

// ResolveCmd represents the 'resolve' command
var ResolveCmd = &cobra.Command{
	Use:   "resolve [alias]",
	Short: "Shows the URL registered under an alias.",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		svc, repo, err := cmd.OpenService(cmd.Cfg, cmd.Log)
		if err != nil {
			return err
		}
		defer repo.Close()

		return runResolve(c.Context(), c.OutOrStdout(), svc, args[0])
	},
}

func runResolve(ctx context.Context, out io.Writer, svc *services.URLService, alias string) error {
	rec, err := svc.Resolve(ctx, alias)
	if errors.Is(err, customerrors.ErrAliasNotFound) {
		return fmt.Errorf("alias %q not found", alias)
	}
	if err != nil {
		return fmt.Errorf("error resolving alias: %w", err)
	}

	fmt.Fprintf(out, "Alias: %s\n", rec.Alias)
	fmt.Fprintf(out, "URL: %s\n", rec.OriginalURL)
	fmt.Fprintf(out, "Redirects to: %s\n", rec.RedirectTarget())
	fmt.Fprintf(out, "Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func init() {
	cmd.RootCmd.AddCommand(ResolveCmd)
}
