package app

import (
	"errors"
	"fmt"
	"io"

	"crivo-thalam/app/clients"
	"crivo-thalam/app/identity"
	"crivo-thalam/app/logging"
	"crivo-thalam/app/services"
	"crivo-thalam/app/storage"

	"github.com/rs/zerolog"
)

// Version is set at build time with -ldflags "-X crivo-thalam/app.Version=...".
var Version = "dev"

var errNoConfirmer = errors.New("confirmation required but no prompt is available")

// Options tune a Session for one command run.
type Options struct {
	Debug bool
	// AssumeYes answers every confirmation with yes.
	AssumeYes bool
	Confirm   services.Confirmer
	LogOutput io.Writer
}

// Session is the wired set of components behind a single command.
type Session struct {
	Config       *Config
	Log          zerolog.Logger
	Orchestrator *services.Orchestrator

	journal *storage.Journal
}

// Bootstrap loads configuration and wires the orchestrator
func Bootstrap(opts Options) (*Session, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Debug: opts.Debug, Output: opts.LogOutput})
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	log.Debug().Str("api_url", cfg.APIURL).Str("config_dir", cfg.ConfigDir).Dur("timeout", cfg.RequestTimeout).Msg("loaded config")

	confirm := opts.Confirm
	switch {
	case opts.AssumeYes:
		confirm = func(string) (bool, error) { return true, nil }
	case confirm == nil:
		confirm = func(string) (bool, error) { return false, errNoConfirmer }
	}

	httpClient := clients.NewHTTPClient(cfg.APIURL, cfg.RequestTimeout, "crivo-thalam/"+Version, log)
	deviceClient := services.NewDeviceClient(httpClient)

	s := &Session{Config: cfg, Log: log}
	deps := services.Deps{
		Store:     storage.NewDeviceStore(cfg.DevicePath()),
		Collector: identity.NewCollector(log),
		Registrar: services.NewRegistrationService(deviceClient, log),
		Status:    services.NewStatusService(deviceClient, log),
		Confirm:   confirm,
		Log:       log,
	}

	if cfg.JournalEnabled {
		journal, err := storage.OpenJournal(cfg.JournalPath())
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.JournalPath()).Msg("journal unavailable, continuing without it")
		} else {
			s.journal = journal
			deps.Journal = journal
		}
	}

	s.Orchestrator = services.NewOrchestrator(deps)
	return s, nil
}

// Close releases the journal, if open
func (s *Session) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}
