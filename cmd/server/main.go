package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"one-ui-backend/config"
	_ "one-ui-backend/docs" // generated by swag
	"one-ui-backend/internal/controller"
	"one-ui-backend/internal/database"
	"one-ui-backend/internal/elasticsearch"
	"one-ui-backend/internal/filestate"
	"one-ui-backend/internal/kafka"
	"one-ui-backend/internal/metrics"
	"one-ui-backend/internal/middleware"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/parser"
	"one-ui-backend/internal/scheduler"
	"one-ui-backend/internal/service"
	"one-ui-backend/internal/store"
	"one-ui-backend/internal/telegram"
	"one-ui-backend/internal/timescaledb"
	"one-ui-backend/internal/xray"
)

// @title           One-UI Panel API
// @version         1.0
// @description     Management backend for an Xray-based proxy deployment: groups, API keys, settings, backups, audit trail, metrics and live log streams.

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @tag.name         audit
// @tag.description  Audit trail search and live stream

// @tag.name         xray
// @tag.description  Xray runtime control and live logs

// @tag.name         groups
// @tag.description  User groups and policy rollouts

// @tag.name         keys
// @tag.description  API key management

// @tag.name         settings
// @tag.description  Panel settings documents

// @tag.name         backups
// @tag.description  Backup and restore

// @tag.name         metrics
// @tag.description  Connection metrics

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Enter the token with the `Bearer: ` prefix, e.g. "Bearer ouk_ab12_...".

func main() {
	var wg sync.WaitGroup

	app := fx.New(
		// Core Dependencies
		fx.Provide(
			NewConfig,
		),
		// Infrastructure Dependencies
		fx.Provide(
			database.ProvideDatabase,
			NewGinEngine,
			database.NewGroupRepository,
			database.NewAPIKeyRepository,
			database.NewSettingRepository,
			database.NewBackupRepository,
			elasticsearch.NewElasticAuditStore,
			elasticsearch.NewElasticsearchAuditRepository,
			timescaledb.ProvideTimescaleDBPool,
			timescaledb.NewTimescaleMetricRepository,
			kafka.NewKafkaAuditProducer,
			kafka.NewKafkaAuditConsumer,
			NewFileStateManager,
			NewLogWindow,
			NewAuditWindow,
			parser.NewXrayLogParser,
			metrics.NewXrayLogExtractor,
			xray.NewProcessManager,
			NewTelegramNotifier,
			NewSecurityPolicy,
			service.NewAuditRecorder,
			service.NewAuditIndexerService,
			service.NewXrayIngestService,
			service.NewAuditQueryService,
			service.NewMetricQueryService,
			service.NewSnapshotService,
			service.NewGroupService,
			service.NewAPIKeyService,
			service.NewSettingService,
			service.NewBackupService,
			service.NewXrayService,
			controller.NewAuditController,
			controller.NewXrayController,
			controller.NewGroupController,
			controller.NewAPIKeyController,
			controller.NewSettingController,
			controller.NewBackupController,
			controller.NewMetricController,
		),
		fx.Invoke(
			RegisterAPIRoutes,
			RegisterScheduler,
			func(lc fx.Lifecycle, recorder service.AuditRecorder, indexer service.AuditIndexerService) {
				startBackgroundLoops(lc, &wg, recorder, indexer)
			},
		),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	<-app.Done()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	log.Info().Msg("Shutting down application...")
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown due to error or timeout")
	}

	log.Info().Msg("Waiting for background goroutines to finish...")
	wg.Wait()
	log.Info().Msg("All background processes finished. Exiting.")
}

func NewConfig() (*config.Config, error) {
	return config.NewConfig()
}

func NewGinEngine(cfg *config.Config, policy *middleware.SecurityPolicy) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// Origins come from the stored security settings; edits apply as the
	// policy cache refreshes.
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  policy.AllowOrigin,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func RegisterAPIRoutes(
	lifecycle fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	keyService service.APIKeyService,
	recorder service.AuditRecorder,
	notifier telegram.Notifier,
	policy *middleware.SecurityPolicy,
	auditController *controller.AuditController,
	xrayController *controller.XrayController,
	groupController *controller.GroupController,
	apiKeyController *controller.APIKeyController,
	settingController *controller.SettingController,
	backupController *controller.BackupController,
	metricController *controller.MetricController,
) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, model.NewResponse("ok", nil))
	})

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(policy))
	api.Use(middleware.Auth(cfg, keyService, recorder, notifier, policy))
	admin := middleware.RequireAdmin(recorder)

	controller.RegisterAuditRoutes(api, auditController)
	controller.RegisterXrayRoutes(api, admin, xrayController)
	controller.RegisterGroupRoutes(api, admin, groupController)
	controller.RegisterAPIKeyRoutes(api, admin, apiKeyController)
	controller.RegisterSettingRoutes(api, admin, settingController)
	controller.RegisterBackupRoutes(api, admin, backupController)
	controller.RegisterMetricRoutes(api, metricController)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Starting HTTP server on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server ListenAndServe error")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Shutting down HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}

// --- Factory Functions ---

func NewFileStateManager(cfg *config.Config) filestate.Manager {
	return filestate.NewManager(cfg.FileState.FilePath)
}

func NewLogWindow(cfg *config.Config) store.LogWindow {
	return store.NewInMemoryLogWindow(cfg.Xray.TailWindow)
}

func NewAuditWindow(cfg *config.Config) store.AuditWindow {
	return store.NewInMemoryAuditWindow(cfg.Xray.TailWindow)
}

func NewTelegramNotifier(cfg *config.Config, settings service.SettingService) telegram.Notifier {
	return telegram.NewNotifier(cfg, settings.GetTelegram)
}

func NewSecurityPolicy(settings service.SettingService) *middleware.SecurityPolicy {
	return middleware.NewSecurityPolicy(settings.GetSecurity)
}

// --- Invoker Functions ---

func RegisterScheduler(
	lc fx.Lifecycle,
	cfg *config.Config,
	ingestSvc service.XrayIngestService,
	backupSvc service.BackupService,
	groupSvc service.GroupService,
	settingSvc service.SettingService,
	auditStore elasticsearch.AuditStore,
) {
	scheduler.NewScheduler(lc, cfg, ingestSvc, backupSvc, groupSvc, settingSvc, auditStore)
}

// startBackgroundLoops runs the audit recorder and the audit indexer on
// lifecycle-cancelled contexts; the shared WaitGroup lets main block until
// both have drained.
func startBackgroundLoops(lc fx.Lifecycle, wg *sync.WaitGroup, recorder service.AuditRecorder, indexer service.AuditIndexerService) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info().Msg("Starting audit recorder and indexer goroutines")
			wg.Add(2)
			go recorder.Run(ctx, wg)
			go indexer.Run(ctx, wg)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info().Msg("Signaling background goroutines to stop...")
			cancel()
			return nil
		},
	})
}
