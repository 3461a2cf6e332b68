// Package cli implements the crivo-thalam command tree.
package cli

import (
	"context"
	"io"

	"crivo-thalam/app"
	"crivo-thalam/app/ui"

	"github.com/spf13/cobra"
)

const (
	binaryName = "crivo-thalam"
	yesHint    = "use --yes to skip the prompt"
)

type globalFlags struct {
	debug         bool
	noInteraction bool
}

// NewRootCmd builds the crivo-thalam command tree
func NewRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           binaryName,
		Short:         "Register this device with Crivo Thalam and track its authorization",
		Version:       app.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.ConfigureInteraction(g.noInteraction)
		},
	}
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&g.noInteraction, "no-interaction", false, "Never prompt; fail instead")

	root.AddCommand(setupCmd(&g))
	root.AddCommand(statusCmd(&g))
	root.AddCommand(infoCmd(&g))
	root.AddCommand(resetCmd(&g))
	root.AddCommand(historyCmd(&g))
	root.AddCommand(versionCmd())

	return root
}

// Execute runs the command tree. Handled failures are rendered and do not
// produce an error; only usage errors reach the caller.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// run bootstraps a session, hands it to fn and renders any error fn returns.
func (g *globalFlags) run(cmd *cobra.Command, assumeYes bool, fn func(ctx context.Context, s *app.Session, out io.Writer) error) error {
	out := cmd.OutOrStdout()

	s, err := app.Bootstrap(app.Options{
		Debug:     g.debug,
		AssumeYes: assumeYes,
		Confirm: func(question string) (bool, error) {
			return ui.Confirm(question, yesHint)
		},
		LogOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		renderError(out, err, "")
		return nil
	}
	defer func() {
		if err := s.Close(); err != nil {
			s.Log.Debug().Err(err).Msg("failed to close session")
		}
	}()

	if err := fn(cmd.Context(), s, out); err != nil {
		renderError(out, err, s.Config.APIURL)
	}
	return nil
}
