package cli

import (
	"context"
	"fmt"
	"io"

	"crivo-thalam/app"
	"crivo-thalam/app/identity"
	"crivo-thalam/app/ui"

	"github.com/spf13/cobra"
)

func setupCmd(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Setup and register this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, yes, func(ctx context.Context, s *app.Session, out io.Writer) error {
				fmt.Fprintln(out, ui.Panel("Crivo Thalam Device Setup",
					"This will register your device and generate an authorization link.", ui.PanelAccent))

				outcome, err := s.Orchestrator.Setup(ctx)
				if err != nil {
					return err
				}
				if outcome.Aborted {
					fmt.Fprintln(out, ui.WarnMsg("Keeping existing configuration for device %s", ui.Accent(outcome.Previous.DeviceID)))
					return nil
				}

				fmt.Fprintln(out)
				fmt.Fprint(out, identityValues(outcome.Identity))
				fmt.Fprintln(out)
				fmt.Fprintln(out, ui.SuccessMsg("Device registered successfully!"))
				fmt.Fprintln(out)
				fmt.Fprintln(out, ui.Panel("Authorization Required", fmt.Sprintf(
					"Please visit this link to authorize your device:\n\n%s\n\nDevice ID: %s",
					ui.Link(outcome.Record.AuthLink), ui.Muted(outcome.Record.DeviceID)), ui.PanelWarn))
				fmt.Fprintln(out)
				fmt.Fprintln(out, ui.HintMsg("After authorizing, run %s to check status", binaryName+" status"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Reconfigure without asking")
	return cmd
}

func identityValues(ident identity.DeviceIdentity) string {
	return ui.KeyValues("  ",
		ui.KV("Device Name", ident.DeviceName),
		ui.KV("Platform", ident.Platform),
		ui.KV("Platform Version", ident.PlatformVersion),
		ui.KV("Machine", ident.Machine),
		ui.KV("Processor", ident.Processor),
		ui.KV("Device ID", ident.DeviceID),
	)
}
