package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"one-ui-backend/config"
	"one-ui-backend/internal/elasticsearch"
	"one-ui-backend/internal/service"
)

// NewScheduler wires the periodic jobs: log ingestion, scheduled backups,
// the group rollout sweep and audit-index retention cleanup. The backup
// schedule comes from the stored backup settings and is re-registered when
// the document changes.
func NewScheduler(
	lc fx.Lifecycle,
	cfg *config.Config,
	ingestSvc service.XrayIngestService,
	backupSvc service.BackupService,
	groupSvc service.GroupService,
	settingSvc service.SettingService,
	auditStore elasticsearch.AuditStore,
) *cron.Cron {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))

	tailEvery := cfg.Xray.TailInterval
	if tailEvery <= 0 {
		tailEvery = time.Second
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", tailEvery), func() {
		if err := ingestSvc.ProcessLogs(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error during scheduled log ingestion")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to add log ingestion job")
		return nil
	}
	log.Info().Dur("interval", tailEvery).Msg("Scheduled log ingestion job")

	backupJob := &backupEntry{
		cron:       c,
		parser:     parser,
		backupSvc:  backupSvc,
		settingSvc: settingSvc,
		fallback:   cfg.Backup.Schedule,
	}
	backupJob.reconcile()
	// Picks up schedule edits without a restart.
	if _, err := c.AddFunc("@every 1m", backupJob.reconcile); err != nil {
		log.Fatal().Err(err).Msg("Failed to add backup schedule watcher")
		return nil
	}

	retentionDays := cfg.Elasticsearch.RetentionDays
	if _, err := c.AddFunc("@daily", func() {
		if err := auditStore.PruneIndices(context.Background(), retentionDays); err != nil {
			log.Error().Err(err).Msg("Error during audit index retention cleanup")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to add audit retention job")
		return nil
	}

	if _, err := c.AddFunc("@every 30s", func() {
		if err := groupSvc.ApplyDueRollouts(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error during rollout sweep")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to add rollout sweep job")
		return nil
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msg("Starting cron scheduler")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping cron scheduler...")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
				log.Info().Msg("Cron scheduler stopped gracefully.")
				return nil
			case <-ctx.Done():
				log.Error().Msg("Context cancelled while waiting for cron scheduler to stop.")
				return ctx.Err()
			}
		},
	})

	return c
}

// backupEntry keeps the scheduled backup job in sync with the stored backup
// settings document. reconcile is cheap enough to run from a watcher job.
type backupEntry struct {
	cron       *cron.Cron
	parser     cron.Parser
	backupSvc  service.BackupService
	settingSvc service.SettingService
	fallback   string

	mu      sync.Mutex
	current string
	id      cron.EntryID
}

func (b *backupEntry) reconcile() {
	schedule := b.fallback
	if st, err := b.settingSvc.GetBackup(context.Background()); err == nil && st.Schedule != "" {
		schedule = st.Schedule
	} else if err != nil {
		log.Warn().Err(err).Msg("Could not load backup settings, using configured schedule")
	}
	if _, err := b.parser.Parse(schedule); err != nil {
		log.Error().Err(err).Str("schedule", schedule).Msg("Stored backup schedule is invalid, using configured default")
		schedule = b.fallback
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if schedule == b.current {
		return
	}
	if b.current != "" {
		b.cron.Remove(b.id)
	}
	id, err := b.cron.AddFunc(schedule, func() {
		if _, err := b.backupSvc.RunBackup(context.Background(), "scheduled"); err != nil && !errors.Is(err, service.ErrBackupRunning) {
			log.Error().Err(err).Msg("Error during scheduled backup")
		}
	})
	if err != nil {
		log.Error().Err(err).Str("schedule", schedule).Msg("Failed to register backup job")
		return
	}
	b.current = schedule
	b.id = id
	log.Info().Str("schedule", schedule).Msg("Scheduled backup job")
}
