package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
)

// Schedules accept an optional seconds field and descriptors like @daily.
var cronSpecParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional | cron.Descriptor,
)

// SettingService stores the typed settings documents. Each document lives
// under its own key as JSON; absent rows fall back to defaults.
type SettingService interface {
	GetBranding(ctx context.Context) (*dto.BrandingSettings, error)
	UpdateBranding(ctx context.Context, req dto.BrandingSettings) error
	GetSecurity(ctx context.Context) (*dto.SecuritySettings, error)
	UpdateSecurity(ctx context.Context, req dto.SecuritySettings) error
	GetTelegram(ctx context.Context) (*dto.TelegramSettings, error)
	UpdateTelegram(ctx context.Context, req dto.TelegramSettings) error
	GetBackup(ctx context.Context) (*dto.BackupSettings, error)
	UpdateBackup(ctx context.Context, req dto.BackupSettings) error
}

type settingService struct {
	settings repository.SettingRepository
	recorder AuditRecorder
}

func NewSettingService(settings repository.SettingRepository, recorder AuditRecorder) SettingService {
	return &settingService{settings: settings, recorder: recorder}
}

func (s *settingService) GetBranding(ctx context.Context) (*dto.BrandingSettings, error) {
	out := dto.DefaultBranding()
	if err := s.load(ctx, dto.SettingKeyBranding, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *settingService) UpdateBranding(ctx context.Context, req dto.BrandingSettings) error {
	switch req.Theme {
	case "", "light", "dark", "system":
	default:
		return fmt.Errorf("unsupported theme: %s", req.Theme)
	}
	return s.save(ctx, dto.SettingKeyBranding, req)
}

func (s *settingService) GetSecurity(ctx context.Context) (*dto.SecuritySettings, error) {
	out := dto.DefaultSecurity()
	if err := s.load(ctx, dto.SettingKeySecurity, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *settingService) UpdateSecurity(ctx context.Context, req dto.SecuritySettings) error {
	if req.SessionTTLMinutes < 5 {
		return errors.New("session_ttl_minutes must be at least 5")
	}
	if req.RateLimitPerMin <= 0 || req.AuthRateLimit <= 0 {
		return errors.New("rate limits must be positive")
	}
	return s.save(ctx, dto.SettingKeySecurity, req)
}

func (s *settingService) GetTelegram(ctx context.Context) (*dto.TelegramSettings, error) {
	out := dto.DefaultTelegram()
	if err := s.load(ctx, dto.SettingKeyTelegram, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *settingService) UpdateTelegram(ctx context.Context, req dto.TelegramSettings) error {
	if req.Enabled && req.BotToken == "" {
		return errors.New("bot_token is required when telegram is enabled")
	}
	// An empty token on an update keeps the stored one, so clients can send
	// back the masked document they were shown.
	if req.BotToken == "" {
		current, err := s.GetTelegram(ctx)
		if err != nil {
			return err
		}
		req.BotToken = current.BotToken
	}
	return s.save(ctx, dto.SettingKeyTelegram, req)
}

func (s *settingService) GetBackup(ctx context.Context) (*dto.BackupSettings, error) {
	out := dto.DefaultBackup()
	if err := s.load(ctx, dto.SettingKeyBackup, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *settingService) UpdateBackup(ctx context.Context, req dto.BackupSettings) error {
	if _, err := cronSpecParser.Parse(req.Schedule); err != nil {
		return fmt.Errorf("invalid backup schedule: %w", err)
	}
	if req.Retention < 1 {
		return errors.New("retention must keep at least one backup")
	}
	return s.save(ctx, dto.SettingKeyBackup, req)
}

func (s *settingService) load(ctx context.Context, key string, out interface{}) error {
	setting, err := s.settings.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal([]byte(setting.Value), out); err != nil {
		return fmt.Errorf("settings document %q is corrupt: %w", key, err)
	}
	return nil
}

func (s *settingService) save(ctx context.Context, key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode settings document %q: %w", key, err)
	}
	err = s.settings.Put(ctx, &model.Setting{
		Key:       key,
		Value:     string(encoded),
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	actor := model.ActorFromContext(ctx)
	s.recorder.Record(model.AuditEvent{
		Category:  model.AuditCategorySettings,
		Action:    "settings.updated",
		Actor:     actor.Name,
		ActorIP:   actor.IP,
		Target:    key,
		Status:    model.AuditStatusSuccess,
		RequestID: actor.RequestID,
	})
	return nil
}
