package services

import (
	"context"
	"errors"
	"fmt"

	"crivo-thalam/app/identity"
	"crivo-thalam/app/storage"

	"github.com/rs/zerolog"
)

// ErrJournalDisabled is returned by History when no journal is configured.
var ErrJournalDisabled = errors.New("journal is disabled")

// DeviceStore persists the device record
type DeviceStore interface {
	Load() (*storage.DeviceRecord, error)
	Save(record *storage.DeviceRecord) error
	Delete() (bool, error)
	Exists() bool
	Lock() (func(), error)
}

// IdentityCollector gathers the local device identity
type IdentityCollector interface {
	Collect(ctx context.Context) identity.DeviceIdentity
}

// Registrar registers devices with the service
type Registrar interface {
	Register(ctx context.Context, ident identity.DeviceIdentity) (*RegistrationResult, error)
}

// StatusFetcher fetches authorization status from the service
type StatusFetcher interface {
	FetchStatus(ctx context.Context, deviceID string) (*StatusResult, error)
}

// Journal records command runs
type Journal interface {
	Record(ctx context.Context, entry storage.JournalEntry) error
	Recent(ctx context.Context, limit int) ([]storage.JournalEntry, error)
}

// Confirmer asks the user a yes/no question. Declining is not an error.
type Confirmer func(question string) (bool, error)

// Deps are the collaborators of an Orchestrator. Journal may be nil.
type Deps struct {
	Store     DeviceStore
	Collector IdentityCollector
	Registrar Registrar
	Status    StatusFetcher
	Confirm   Confirmer
	Journal   Journal
	Log       zerolog.Logger
}

// Orchestrator sequences the device commands. It keeps no state between
// calls; the device record on disk is the only state.
type Orchestrator struct {
	store     DeviceStore
	collector IdentityCollector
	registrar Registrar
	status    StatusFetcher
	confirm   Confirmer
	journal   Journal
	log       zerolog.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(d Deps) *Orchestrator {
	return &Orchestrator{
		store:     d.Store,
		collector: d.Collector,
		registrar: d.Registrar,
		status:    d.Status,
		confirm:   d.Confirm,
		journal:   d.Journal,
		log:       d.Log,
	}
}

// SetupOutcome describes a finished setup
type SetupOutcome struct {
	// Aborted is set when the user declined to replace an existing record.
	Aborted  bool
	Previous *storage.DeviceRecord
	Identity identity.DeviceIdentity
	Record   *storage.DeviceRecord
}

// StatusOutcome describes a finished status check
type StatusOutcome struct {
	Record storage.DeviceRecord
	Status StatusResult
}

// NeedsAuthorization reports whether the auth link should be shown again
func (o *StatusOutcome) NeedsAuthorization() bool {
	return !o.Record.IsAuthorized
}

// ResetOutcome describes a finished reset
type ResetOutcome struct {
	NothingToDo bool
	Aborted     bool
	DeviceID    string
}

// ReconfigureQuestion builds the prompt shown before replacing a record.
func ReconfigureQuestion(deviceID string) string {
	return fmt.Sprintf("Device %s is already configured. Do you want to reconfigure?", deviceID)
}

// ResetQuestion is the prompt shown before deleting the record.
const ResetQuestion = "Are you sure you want to reset device configuration?"

// Setup registers this device. An existing record is only replaced after
// confirmation; on any failure the existing record is left as it was.
func (o *Orchestrator) Setup(ctx context.Context) (*SetupOutcome, error) {
	existing, err := o.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load device record: %w", err)
	}

	if existing != nil {
		ok, err := o.confirm(ReconfigureQuestion(existing.DeviceID))
		if err != nil {
			return nil, err
		}
		if !ok {
			o.record(ctx, storage.KindSetup, existing.DeviceID, storage.OutcomeAborted, "reconfiguration declined")
			return &SetupOutcome{Aborted: true, Previous: existing}, nil
		}
	}

	ident := o.collector.Collect(ctx)

	result, err := o.registrar.Register(ctx, ident)
	if err != nil {
		o.record(ctx, storage.KindSetup, "", storage.OutcomeFailed, err.Error())
		return nil, err
	}

	record := &storage.DeviceRecord{
		DeviceID:     result.DeviceID,
		DeviceName:   ident.DeviceName,
		AuthLink:     result.AuthLink,
		IsAuthorized: false,
	}

	unlock, err := o.store.Lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := o.store.Save(record); err != nil {
		o.record(ctx, storage.KindSetup, record.DeviceID, storage.OutcomeFailed, err.Error())
		return nil, fmt.Errorf("save device record: %w", err)
	}

	o.log.Info().Str("device_id", record.DeviceID).Msg("device record saved")
	o.record(ctx, storage.KindSetup, record.DeviceID, storage.OutcomeOK, "")

	return &SetupOutcome{Previous: existing, Identity: ident, Record: record}, nil
}

// Status refreshes the authorization state from the service and persists it.
// It makes no network call when the device is not configured.
func (o *Orchestrator) Status(ctx context.Context) (*StatusOutcome, error) {
	if !o.store.Exists() {
		return nil, ErrNotConfigured
	}

	unlock, err := o.store.Lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	record, err := o.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load device record: %w", err)
	}
	if record == nil {
		return nil, ErrNotConfigured
	}

	status, err := o.status.FetchStatus(ctx, record.DeviceID)
	if err != nil {
		o.record(ctx, storage.KindStatus, record.DeviceID, storage.OutcomeFailed, err.Error())
		return nil, err
	}

	merged := MergeStatus(*record, *status)
	if err := o.store.Save(&merged); err != nil {
		return nil, fmt.Errorf("save device record: %w", err)
	}
	if merged != *record {
		o.log.Info().Str("device_id", merged.DeviceID).Bool("is_authorized", merged.IsAuthorized).Msg("device record updated")
	}

	detail := "pending"
	if merged.IsAuthorized {
		detail = "authorized"
	}
	o.record(ctx, storage.KindStatus, merged.DeviceID, storage.OutcomeOK, detail)

	return &StatusOutcome{Record: merged, Status: *status}, nil
}

// Info returns the stored record
func (o *Orchestrator) Info(_ context.Context) (*storage.DeviceRecord, error) {
	record, err := o.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load device record: %w", err)
	}
	if record == nil {
		return nil, ErrNotConfigured
	}
	return record, nil
}

// Reset deletes the record after confirmation. A corrupt record can be reset.
func (o *Orchestrator) Reset(ctx context.Context) (*ResetOutcome, error) {
	if !o.store.Exists() {
		return &ResetOutcome{NothingToDo: true}, nil
	}

	var deviceID string
	if record, err := o.store.Load(); err == nil && record != nil {
		deviceID = record.DeviceID
	}

	ok, err := o.confirm(ResetQuestion)
	if err != nil {
		return nil, err
	}
	if !ok {
		o.record(ctx, storage.KindReset, deviceID, storage.OutcomeAborted, "reset declined")
		return &ResetOutcome{Aborted: true, DeviceID: deviceID}, nil
	}

	unlock, err := o.store.Lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	removed, err := o.store.Delete()
	if err != nil {
		o.record(ctx, storage.KindReset, deviceID, storage.OutcomeFailed, err.Error())
		return nil, err
	}
	if !removed {
		return &ResetOutcome{NothingToDo: true}, nil
	}

	o.log.Info().Str("device_id", deviceID).Msg("device record removed")
	o.record(ctx, storage.KindReset, deviceID, storage.OutcomeOK, "")
	return &ResetOutcome{DeviceID: deviceID}, nil
}

// History returns up to limit journal entries, newest first
func (o *Orchestrator) History(ctx context.Context, limit int) ([]storage.JournalEntry, error) {
	if o.journal == nil {
		return nil, ErrJournalDisabled
	}
	return o.journal.Recent(ctx, limit)
}

// record appends to the journal. Journal failures never fail a command.
func (o *Orchestrator) record(ctx context.Context, kind, deviceID, outcome, detail string) {
	if o.journal == nil {
		return
	}
	err := o.journal.Record(ctx, storage.JournalEntry{
		Kind:     kind,
		DeviceID: deviceID,
		Outcome:  outcome,
		Detail:   detail,
	})
	if err != nil {
		o.log.Warn().Err(err).Str("kind", kind).Msg("failed to record journal entry")
	}
}
