package cli

import (
	"errors"
	"fmt"
	"io"

	"crivo-thalam/app/clients"
	"crivo-thalam/app/services"
	"crivo-thalam/app/storage"
	"crivo-thalam/app/ui"
)

// renderError prints err as a user-facing message with a follow-up hint.
func renderError(w io.Writer, err error, apiURL string) {
	var (
		rejected      *services.RejectedError
		corrupt       *storage.CorruptStateError
		transport     *clients.TransportError
		noInteraction *ui.NoInteractionError
	)

	switch {
	case errors.Is(err, services.ErrNotConfigured):
		fmt.Fprintln(w, ui.ErrorMsg("Device not configured. Run %s first.", ui.Bold(binaryName+" setup")))
	case errors.Is(err, services.ErrServiceUnavailable):
		fmt.Fprintln(w, ui.ErrorMsg("Could not connect to Crivo Thalam API at %s", apiURL))
		fmt.Fprintln(w, ui.HintMsg("Make sure the backend server is running"))
	case errors.As(err, &rejected):
		fmt.Fprintln(w, ui.ErrorMsg("%s", capitalize(rejected.Error())))
	case errors.As(err, &corrupt):
		fmt.Fprintln(w, ui.ErrorMsg("Device configuration at %s is unreadable: %v", corrupt.Path, corrupt.Err))
		fmt.Fprintln(w, ui.HintMsg("Inspect the file or run %s reset to start over", binaryName))
	case errors.Is(err, ui.ErrCancelled):
		fmt.Fprintln(w, ui.WarnMsg("Cancelled"))
	case errors.As(err, &noInteraction):
		fmt.Fprintln(w, ui.ErrorMsg("Confirmation required but not running interactively"))
		fmt.Fprintln(w, ui.HintMsg("Re-run in a terminal or %s", noInteraction.Hint))
	case errors.Is(err, services.ErrJournalDisabled):
		fmt.Fprintln(w, ui.WarnMsg("Command history is disabled"))
		fmt.Fprintln(w, ui.HintMsg("Set CRIVO_JOURNAL=true to record it"))
	case errors.As(err, &transport):
		fmt.Fprintln(w, ui.ErrorMsg("Error: %v", transport.Err))
	default:
		fmt.Fprintln(w, ui.ErrorMsg("Error: %v", err))
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
