package scheduler

import (
	"context"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
)

type backupSettingsStub struct {
	schedule string
	err      error
}

func (s *backupSettingsStub) GetBackup(context.Context) (*dto.BackupSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.BackupSettings{Schedule: s.schedule, Retention: 7}, nil
}

func (s *backupSettingsStub) UpdateBackup(context.Context, dto.BackupSettings) error { return nil }
func (s *backupSettingsStub) GetBranding(context.Context) (*dto.BrandingSettings, error) {
	return nil, nil
}
func (s *backupSettingsStub) UpdateBranding(context.Context, dto.BrandingSettings) error { return nil }
func (s *backupSettingsStub) GetSecurity(context.Context) (*dto.SecuritySettings, error) {
	return nil, nil
}
func (s *backupSettingsStub) UpdateSecurity(context.Context, dto.SecuritySettings) error { return nil }
func (s *backupSettingsStub) GetTelegram(context.Context) (*dto.TelegramSettings, error) {
	return nil, nil
}
func (s *backupSettingsStub) UpdateTelegram(context.Context, dto.TelegramSettings) error { return nil }

type backupRunnerStub struct{}

func (backupRunnerStub) RunBackup(context.Context, string) (*model.BackupRecord, error) {
	return &model.BackupRecord{}, nil
}
func (backupRunnerStub) List(context.Context) ([]model.BackupRecord, error)    { return nil, nil }
func (backupRunnerStub) Get(context.Context, string) (*model.BackupRecord, error) { return nil, nil }
func (backupRunnerStub) Restore(context.Context, string) error                 { return nil }
func (backupRunnerStub) Prune(context.Context) error                           { return nil }

func newBackupEntry(settings *backupSettingsStub) *backupEntry {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional | cron.Descriptor)
	return &backupEntry{
		cron:       cron.New(cron.WithParser(parser)),
		parser:     parser,
		backupSvc:  backupRunnerStub{},
		settingSvc: settings,
		fallback:   "0 0 4 * * *",
	}
}

func TestReconcileRegistersStoredSchedule(t *testing.T) {
	entry := newBackupEntry(&backupSettingsStub{schedule: "0 0 2 * * *"})

	entry.reconcile()

	require.Len(t, entry.cron.Entries(), 1)
	assert.Equal(t, "0 0 2 * * *", entry.current)
}

func TestReconcileAppliesScheduleEdits(t *testing.T) {
	settings := &backupSettingsStub{schedule: "0 0 2 * * *"}
	entry := newBackupEntry(settings)
	entry.reconcile()
	first := entry.id

	// Unchanged document keeps the registered job.
	entry.reconcile()
	assert.Equal(t, first, entry.id)

	settings.schedule = "0 30 5 * * *"
	entry.reconcile()

	assert.NotEqual(t, first, entry.id, "a schedule edit re-registers the job")
	assert.Equal(t, "0 30 5 * * *", entry.current)
	require.Len(t, entry.cron.Entries(), 1, "the old job is removed")
}

func TestReconcileFallsBackOnInvalidSchedule(t *testing.T) {
	entry := newBackupEntry(&backupSettingsStub{schedule: "whenever"})

	entry.reconcile()

	assert.Equal(t, entry.fallback, entry.current)
	require.Len(t, entry.cron.Entries(), 1)
}

func TestReconcileFallsBackWhenSettingsUnavailable(t *testing.T) {
	entry := newBackupEntry(&backupSettingsStub{err: assert.AnError})

	entry.reconcile()

	assert.Equal(t, entry.fallback, entry.current)
	require.Len(t, entry.cron.Entries(), 1)
}
