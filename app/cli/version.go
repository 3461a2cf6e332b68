package cli

import (
	"fmt"
	"runtime"

	"crivo-thalam/app"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s/%s)\n", binaryName, app.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
