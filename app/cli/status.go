package cli

import (
	"context"
	"fmt"
	"io"

	"crivo-thalam/app"
	"crivo-thalam/app/ui"

	"github.com/spf13/cobra"
)

func statusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check device authorization status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, false, func(ctx context.Context, s *app.Session, out io.Writer) error {
				outcome, err := s.Orchestrator.Status(ctx)
				if err != nil {
					return err
				}

				record := outcome.Record
				state := ui.WarnMsg("Pending Authorization")
				if record.IsAuthorized {
					state = ui.SuccessMsg("Authorized")
				}

				pairs := []ui.Pair{
					ui.KV("Device ID", record.DeviceID),
					ui.KV("Device Name", record.DeviceName),
					ui.KV("Status", state),
				}
				if record.AuthorizedBy != "" {
					pairs = append(pairs, ui.KV("Authorized By", record.AuthorizedBy))
				}
				if record.AuthorizedAt != "" {
					pairs = append(pairs, ui.KV("Authorized At", record.AuthorizedAt))
				}

				fmt.Fprintln(out, ui.Panel("Device Status", "", ui.PanelAccent))
				fmt.Fprint(out, ui.KeyValues("  ", pairs...))

				if outcome.NeedsAuthorization() {
					fmt.Fprintln(out)
					fmt.Fprintln(out, ui.WarnMsg("Authorization Link:"))
					fmt.Fprintln(out, ui.Link(record.AuthLink))
				}
				return nil
			})
		},
	}
}
