package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"crivo-thalam/app"
	"crivo-thalam/app/ui"

	"github.com/spf13/cobra"
)

func infoCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show device configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, false, func(ctx context.Context, s *app.Session, out io.Writer) error {
				record, err := s.Orchestrator.Info(ctx)
				if err != nil {
					return err
				}

				data, err := json.MarshalIndent(record, "", "  ")
				if err != nil {
					return fmt.Errorf("encode device record: %w", err)
				}

				fmt.Fprintln(out, ui.Panel("Device Configuration", "", ui.PanelAccent))
				fmt.Fprintln(out, string(data))
				return nil
			})
		},
	}
}
