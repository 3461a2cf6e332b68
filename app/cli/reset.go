package cli

import (
	"context"
	"fmt"
	"io"

	"crivo-thalam/app"
	"crivo-thalam/app/ui"

	"github.com/spf13/cobra"
)

func resetCmd(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset device configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, yes, func(ctx context.Context, s *app.Session, out io.Writer) error {
				outcome, err := s.Orchestrator.Reset(ctx)
				if err != nil {
					return err
				}

				switch {
				case outcome.NothingToDo:
					fmt.Fprintln(out, ui.WarnMsg("No configuration found"))
				case outcome.Aborted:
					fmt.Fprintln(out, ui.Muted("Reset cancelled; configuration kept"))
				default:
					fmt.Fprintln(out, ui.SuccessMsg("Device configuration reset successfully"))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Reset without asking")
	return cmd
}
