package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"livestock-backend/config"
	"livestock-backend/services"
	"livestock-backend/storage"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware übernimmt oder erzeugt eine Request-ID und protokolliert jede Anfrage.
func requestIDMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		log.Info("Request handled",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	origins := cfg.Origins()
	if len(origins) == 0 || contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return cors.New(corsCfg)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// newRouter baut den gin-Router mit allen Routen auf.
func newRouter(cfg *config.Config, goats *services.GoatService, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg))
	router.Use(requestIDMiddleware(log))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	setupGoatRoutes(router, goats, log)
	setupReferenceRoutes(router, goats, log)
	setupHealthRoutes(router, goats.DB, log)
	return router
}

func newLogger(mode string) (*zap.Logger, error) {
	if strings.EqualFold(mode, "development") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config load error: %v", err)
	}

	logging, err := newLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup Database
	db, err := storage.Open(ctx, storage.Options{
		Path:         cfg.DBPath,
		MaxOpenConns: cfg.DBMaxOpenConns,
		BusyTimeout:  time.Duration(cfg.DBBusyTimeoutMS) * time.Millisecond,
		LogLevel:     gormLogLevel(cfg.DBLogLevel),
	}, logging)
	if err != nil {
		logging.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Setup Services
	metrics := services.NewMetrics(prometheus.DefaultRegisterer)
	resolver := services.NewReferenceResolver(cfg.ReferenceCacheTTL, logging)
	goatService := services.NewGoatService(db, resolver, logging, metrics)

	// Seeding
	if cfg.SeedCatalog {
		if err := goatService.SeedCatalog(ctx); err != nil {
			logging.Fatal("Failed to seed default catalog", zap.Error(err))
		}
	}

	// Setup Cron
	cronScheduler := cron.New()
	if cfg.BackupEnabled {
		s3Client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		backupService := &services.BackupService{
			DB:      db,
			Store:   s3Client,
			Bucket:  cfg.BackupS3Bucket,
			Prefix:  cfg.BackupPrefix,
			Keep:    cfg.BackupKeep,
			Logger:  logging.With(zap.String("component", "backup")),
			Metrics: metrics,
		}
		_, err = cronScheduler.AddFunc(cfg.BackupSchedule, func() {
			logging.Info("Running scheduled backup job...")
			if key, err := backupService.Run(ctx); err != nil {
				logging.Error("Backup job failed", zap.Error(err))
			} else {
				logging.Info("Backup job completed", zap.String("key", key))
			}
		})
		if err != nil {
			logging.Fatal("Invalid backup schedule", zap.String("schedule", cfg.BackupSchedule), zap.Error(err))
		}
		logging.Info("Backup job scheduled", zap.String("schedule", cfg.BackupSchedule))
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// Setup Router
	router := newRouter(cfg, goatService, prometheus.DefaultGatherer, logging)

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", zap.Error(err))
	}
}
