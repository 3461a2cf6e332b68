package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"crivo-thalam/app"
	"crivo-thalam/app/storage"
	"crivo-thalam/app/ui"

	"github.com/spf13/cobra"
)

func historyCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent setup, status and reset runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, false, func(ctx context.Context, s *app.Session, out io.Writer) error {
				entries, err := s.Orchestrator.History(ctx, limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, ui.InfoMsg("No history yet"))
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.CreatedAt.Local().Format(time.DateTime),
						e.Kind,
						orDash(e.DeviceID),
						outcomeLabel(e.Outcome),
						orDash(e.Detail),
					})
				}
				fmt.Fprintln(out, ui.Table([]string{"TIME", "COMMAND", "DEVICE", "OUTCOME", "DETAIL"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func outcomeLabel(outcome string) string {
	switch outcome {
	case storage.OutcomeOK:
		return ui.SuccessStyle.Render(outcome)
	case storage.OutcomeFailed:
		return ui.ErrorStyle.Render(outcome)
	default:
		return ui.WarnStyle.Render(outcome)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
