package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradejournal/internal/config"
	cronrunner "tradejournal/internal/cron"
	"tradejournal/internal/db"
	"tradejournal/internal/handler"
	"tradejournal/internal/logger"
	gormrepository "tradejournal/internal/repository/gorm"
	"tradejournal/internal/service"
	"tradejournal/internal/storage"
)

func main() {
	cfgPath := os.Getenv("TJ_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("TJ_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	journalSvc := &service.JournalService{
		Repo:            store,
		Logger:          logger,
		StartingCapital: cfg.Journal.StartingCapital,
	}
	backupSvc := &service.BackupService{
		Journal:    journalSvc,
		Storage:    initStorageClient(cfg.Storage, logger),
		Logger:     logger,
		ObjectPath: cfg.Storage.ObjectPath,
		LocalPath:  cfg.Backup.LocalPath,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)
	journalHandler := &handler.JournalHandler{
		Journal:         journalSvc,
		Backup:          backupSvc,
		Repo:            store,
		LatestLimit:     cfg.Journal.LatestLimit,
		HistoryPageSize: cfg.Journal.HistoryPageSize,
	}
	journalHandler.Register(engine)
	analyticsHandler := &handler.AnalyticsHandler{Journal: journalSvc}
	analyticsHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.PullOnStart {
		pullCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := backupSvc.PullOnStart(pullCtx); err != nil {
			logger.Warn("remote ledger pull failed (continuing)", zap.Error(err))
		}
		cancel()
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Backup.Enabled {
		_, err := cronRunner.Add("ledger-backup", cfg.Backup.Schedule, func(ctx context.Context) {
			if err := backupSvc.RunOnce(ctx); err != nil {
				logger.Warn("scheduled ledger backup failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register ledger backup failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func initStorageClient(cfg config.StorageConfig, logger *zap.Logger) *storage.Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil
	}
	apiKey := strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	if apiKey == "" {
		if logger != nil {
			logger.Warn("storage api key missing (backups disabled)", zap.String("env", cfg.APIKeyEnv))
		}
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &storage.Client{
		BaseURL: base,
		APIKey:  apiKey,
		Bucket:  cfg.Bucket,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
