package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/axellelanca/pitico/cmd"
	"github.com/axellelanca/pitico/internal/monitor"
	"github.com/axellelanca/pitico/internal/services"
)

// CheckCmd represents the 'check' command
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Checks that the registered URLs are reachable.",
	Long: `This command sends a HEAD request to the redirect target of every
registered URL and reports which ones are accessible.`,
	RunE: func(c *cobra.Command, args []string) error {
		svc, repo, err := cmd.OpenService(cmd.Cfg, cmd.Log)
		if err != nil {
			return err
		}
		defer repo.Close()

		checker := monitor.NewChecker(
			time.Duration(cmd.Cfg.Monitor.TimeoutSeconds)*time.Second,
			cmd.Cfg.Monitor.Concurrency,
			cmd.Log,
		)
		return runCheck(c.Context(), c.OutOrStdout(), svc, checker)
	},
}

func runCheck(ctx context.Context, out io.Writer, svc *services.URLService, checker *monitor.Checker) error {
	records, err := svc.List(ctx, 0)
	if err != nil {
		return fmt.Errorf("error listing URLs: %w", err)
	}

	inaccessible := 0
	for _, res := range checker.CheckAll(ctx, records) {
		state := monitor.FormatState(res.Accessible)
		switch {
		case res.Err != nil:
			fmt.Fprintf(out, "[%s] %s -> %s (%v)\n", res.Record.Alias, res.Record.RedirectTarget(), state, res.Err)
		default:
			fmt.Fprintf(out, "[%s] %s -> %s (%d)\n", res.Record.Alias, res.Record.RedirectTarget(), state, res.StatusCode)
		}
		if !res.Accessible {
			inaccessible++
		}
	}
	fmt.Fprintf(out, "%d URL(s) checked, %d inaccessible.\n", len(records), inaccessible)
	return nil
}

func init() {
	cmd.RootCmd.AddCommand(CheckCmd)
}
