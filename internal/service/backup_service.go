package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"one-ui-backend/config"
	"one-ui-backend/internal/backup"
	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
	"one-ui-backend/internal/telegram"
	"one-ui-backend/internal/xray"
)

var ErrBackupRunning = errors.New("a backup is already running")

// BackupService archives the control-plane database and the xray config
// into tar.gz files, prunes old archives past the retention count and
// optionally ships each archive to Telegram.
type BackupService interface {
	RunBackup(ctx context.Context, trigger string) (*model.BackupRecord, error)
	List(ctx context.Context) ([]model.BackupRecord, error)
	Get(ctx context.Context, id string) (*model.BackupRecord, error)
	Restore(ctx context.Context, id string) error
	Prune(ctx context.Context) error
}

type backupService struct {
	groups   repository.GroupRepository
	keys     repository.APIKeyRepository
	records  repository.BackupRepository
	settings SettingService
	notifier telegram.Notifier
	manager  xray.Manager
	recorder AuditRecorder

	dir              string
	defaultRetention int
	runLock          sync.Mutex
}

func NewBackupService(
	cfg *config.Config,
	groups repository.GroupRepository,
	keys repository.APIKeyRepository,
	records repository.BackupRepository,
	settings SettingService,
	notifier telegram.Notifier,
	manager xray.Manager,
	recorder AuditRecorder,
) BackupService {
	return &backupService{
		groups:           groups,
		keys:             keys,
		records:          records,
		settings:         settings,
		notifier:         notifier,
		manager:          manager,
		recorder:         recorder,
		dir:              cfg.Backup.Directory,
		defaultRetention: cfg.Backup.Retention,
	}
}

func (s *backupService) RunBackup(ctx context.Context, trigger string) (*model.BackupRecord, error) {
	if !s.runLock.TryLock() {
		return nil, ErrBackupRunning
	}
	defer s.runLock.Unlock()

	startTime := time.Now()
	st, err := s.settings.GetBackup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load backup settings: %w", err)
	}

	fileName := fmt.Sprintf("one-ui-backup-%s.tar.gz", time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(s.dir, fileName)

	record := &model.BackupRecord{
		ID:       uuid.NewString(),
		FileName: fileName,
		Path:     path,
		Trigger:  trigger,
		Status:   "ok",
	}

	entries, err := s.collectEntries(ctx, trigger, st.IncludeXrayConfig)
	if err == nil {
		record.SizeBytes, err = backup.WriteArchive(path, entries)
	}
	if err != nil {
		record.Status = "failed"
		record.Detail = err.Error()
		if createErr := s.records.Create(ctx, record); createErr != nil {
			log.Error().Err(createErr).Msg("Failed to persist failed backup record")
		}
		s.audit(ctx, "backup.created", fileName, model.AuditStatusFailure, err.Error())
		return nil, err
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist backup record: %w", err)
	}
	log.Info().
		Str("file", fileName).
		Int64("size_bytes", record.SizeBytes).
		Str("trigger", trigger).
		Dur("duration", time.Since(startTime)).
		Msg("Backup archive written")
	s.audit(ctx, "backup.created", fileName, model.AuditStatusSuccess, trigger)

	if err := s.pruneLocked(ctx, st.Retention); err != nil {
		log.Error().Err(err).Msg("Failed to prune old backups")
	}

	caption := fmt.Sprintf("One-UI backup %s (%.1f KiB)", fileName, float64(record.SizeBytes)/1024)
	documentPath := ""
	if st.DeliverToTelegram {
		documentPath = path
	}
	if err := s.notifier.NotifyBackup(ctx, caption, documentPath); err != nil {
		log.Warn().Err(err).Msg("Failed to deliver backup notification")
	}

	return record, nil
}

func (s *backupService) collectEntries(ctx context.Context, trigger string, includeXray bool) ([]backup.Entry, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export groups: %w", err)
	}
	keys, err := s.keys.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export api keys: %w", err)
	}
	settings, err := s.exportSettings(ctx)
	if err != nil {
		return nil, err
	}

	meta := map[string]interface{}{
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"trigger":    trigger,
	}

	entries := make([]backup.Entry, 0, 5)
	for _, item := range []struct {
		name string
		data interface{}
	}{
		{"metadata.json", meta},
		{"database/groups.json", groups},
		{"database/api_keys.json", keys},
		{"database/settings.json", settings},
	} {
		encoded, err := json.MarshalIndent(item.data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", item.name, err)
		}
		entries = append(entries, backup.Entry{Name: item.name, Data: encoded})
	}

	if includeXray {
		cfg, err := s.manager.CurrentConfig()
		if err != nil {
			log.Warn().Err(err).Msg("Xray config unavailable, backing up without it")
		} else {
			entries = append(entries, backup.Entry{Name: "xray/config.json", Data: cfg})
		}
	}
	return entries, nil
}

// exportSettings dumps the raw settings documents, secrets included. The
// archive is the restore source, so nothing is masked here.
func (s *backupService) exportSettings(ctx context.Context) (map[string]interface{}, error) {
	branding, err := s.settings.GetBranding(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export branding settings: %w", err)
	}
	security, err := s.settings.GetSecurity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export security settings: %w", err)
	}
	telegramSt, err := s.settings.GetTelegram(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export telegram settings: %w", err)
	}
	backupSt, err := s.settings.GetBackup(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export backup settings: %w", err)
	}
	return map[string]interface{}{
		dto.SettingKeyBranding: branding,
		dto.SettingKeySecurity: security,
		dto.SettingKeyTelegram: telegramSt,
		dto.SettingKeyBackup:   backupSt,
	}, nil
}

func (s *backupService) List(ctx context.Context) ([]model.BackupRecord, error) {
	return s.records.List(ctx, 0)
}

func (s *backupService) Get(ctx context.Context, id string) (*model.BackupRecord, error) {
	return s.records.GetByID(ctx, id)
}

// Restore re-applies an archive: settings documents, groups and the xray
// config. API keys are listed in the archive for reference but never
// restored, since their plaintext secrets are not recoverable. The settings
// go through the usual update path so validation still applies.
func (s *backupService) Restore(ctx context.Context, id string) error {
	if !s.runLock.TryLock() {
		return ErrBackupRunning
	}
	defer s.runLock.Unlock()

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	entries, err := backup.ReadArchive(record.Path)
	if err != nil {
		s.audit(ctx, "backup.restored", record.FileName, model.AuditStatusFailure, err.Error())
		return fmt.Errorf("failed to read archive %s: %w", record.FileName, err)
	}

	byName := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		byName[entry.Name] = entry.Data
	}

	if data, ok := byName["database/settings.json"]; ok {
		if err := s.restoreSettings(ctx, data); err != nil {
			s.audit(ctx, "backup.restored", record.FileName, model.AuditStatusFailure, err.Error())
			return err
		}
	}
	if data, ok := byName["database/groups.json"]; ok {
		if err := s.restoreGroups(ctx, data); err != nil {
			s.audit(ctx, "backup.restored", record.FileName, model.AuditStatusFailure, err.Error())
			return err
		}
	}
	if data, ok := byName["xray/config.json"]; ok {
		if err := s.manager.ApplyConfig(ctx, data); err != nil {
			s.audit(ctx, "backup.restored", record.FileName, model.AuditStatusFailure, err.Error())
			return fmt.Errorf("failed to apply archived xray config: %w", err)
		}
	}

	log.Info().Str("file", record.FileName).Msg("Backup restored")
	s.audit(ctx, "backup.restored", record.FileName, model.AuditStatusSuccess, "")
	return nil
}

func (s *backupService) restoreSettings(ctx context.Context, data []byte) error {
	var docs struct {
		Branding *dto.BrandingSettings `json:"branding"`
		Security *dto.SecuritySettings `json:"security"`
		Telegram *dto.TelegramSettings `json:"telegram"`
		Backup   *dto.BackupSettings   `json:"backup"`
	}
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("archived settings are corrupt: %w", err)
	}
	if docs.Branding != nil {
		if err := s.settings.UpdateBranding(ctx, *docs.Branding); err != nil {
			return fmt.Errorf("failed to restore branding settings: %w", err)
		}
	}
	if docs.Security != nil {
		if err := s.settings.UpdateSecurity(ctx, *docs.Security); err != nil {
			return fmt.Errorf("failed to restore security settings: %w", err)
		}
	}
	if docs.Telegram != nil {
		if err := s.settings.UpdateTelegram(ctx, *docs.Telegram); err != nil {
			return fmt.Errorf("failed to restore telegram settings: %w", err)
		}
	}
	if docs.Backup != nil {
		if err := s.settings.UpdateBackup(ctx, *docs.Backup); err != nil {
			return fmt.Errorf("failed to restore backup settings: %w", err)
		}
	}
	return nil
}

func (s *backupService) restoreGroups(ctx context.Context, data []byte) error {
	var groups []model.Group
	if err := json.Unmarshal(data, &groups); err != nil {
		return fmt.Errorf("archived groups are corrupt: %w", err)
	}
	for i := range groups {
		group := &groups[i]
		_, err := s.groups.GetByID(ctx, group.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			err = s.groups.Create(ctx, group)
		case err == nil:
			err = s.groups.Update(ctx, group)
		}
		if err != nil {
			return fmt.Errorf("failed to restore group %s: %w", group.Name, err)
		}
	}
	return nil
}

func (s *backupService) Prune(ctx context.Context) error {
	st, err := s.settings.GetBackup(ctx)
	if err != nil {
		return err
	}
	return s.pruneLocked(ctx, st.Retention)
}

func (s *backupService) pruneLocked(ctx context.Context, retention int) error {
	if retention <= 0 {
		retention = s.defaultRetention
	}
	if retention <= 0 {
		return nil
	}
	records, err := s.records.List(ctx, 0)
	if err != nil {
		return err
	}
	if len(records) <= retention {
		return nil
	}

	pruned := 0
	for _, record := range records[retention:] {
		if err := os.Remove(record.Path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", record.FileName).Msg("Failed to remove backup archive")
			continue
		}
		if err := s.records.Delete(ctx, record.ID); err != nil {
			log.Warn().Err(err).Str("file", record.FileName).Msg("Failed to remove backup record")
			continue
		}
		pruned++
	}
	if pruned > 0 {
		log.Info().Int("pruned", pruned).Int("retention", retention).Msg("Pruned old backups")
		s.audit(ctx, "backup.pruned", fmt.Sprintf("%d archives", pruned), model.AuditStatusSuccess, "")
	}
	return nil
}

func (s *backupService) audit(ctx context.Context, action, target, status, detail string) {
	actor := model.ActorFromContext(ctx)
	s.recorder.Record(model.AuditEvent{
		Category:  model.AuditCategoryBackup,
		Action:    action,
		Actor:     actor.Name,
		ActorIP:   actor.IP,
		Target:    target,
		Status:    status,
		Detail:    detail,
		RequestID: actor.RequestID,
	})
}
