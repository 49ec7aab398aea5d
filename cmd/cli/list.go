package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/axellelanca/pitico/cmd"
	"github.com/axellelanca/pitico/internal/services"
)

var listLimitFlag int

// ListCmd represents the 'list' command
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists registered URLs in registration order.",
	RunE: func(c *cobra.Command, args []string) error {
		svc, repo, err := cmd.OpenService(cmd.Cfg, cmd.Log)
		if err != nil {
			return err
		}
		defer repo.Close()

		return runList(c.Context(), c.OutOrStdout(), svc, listLimitFlag)
	},
}

func runList(ctx context.Context, out io.Writer, svc *services.URLService, limit int) error {
	records, err := svc.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("error listing URLs: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No URL registered yet.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tALIAS\tURL")
	for _, rec := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\n", rec.ID, rec.Alias, rec.OriginalURL)
	}
	return w.Flush()
}

func init() {
	ListCmd.Flags().IntVar(&listLimitFlag, "limit", 0, "Maximum number of URLs to list (0 lists all)")

	cmd.RootCmd.AddCommand(ListCmd)
}
