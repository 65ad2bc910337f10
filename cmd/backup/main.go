package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"livestock-backend/config"
	"livestock-backend/services"
	"livestock-backend/storage"
)

// Einmaliges Backup der SQLite-Datei nach S3, z.B. als Kubernetes-CronJob.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}
	if !cfg.BackupEnabled {
		log.Fatal("BACKUP_ENABLED ist nicht gesetzt, Backup wird nicht ausgeführt")
	}

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := storage.Open(ctx, storage.Options{
		Path:         cfg.DBPath,
		MaxOpenConns: 1,
		BusyTimeout:  time.Duration(cfg.DBBusyTimeoutMS) * time.Millisecond,
	}, logging)
	if err != nil {
		logging.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	s3Client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}

	backup := &services.BackupService{
		DB:     db,
		Store:  s3Client,
		Bucket: cfg.BackupS3Bucket,
		Prefix: cfg.BackupPrefix,
		Keep:   cfg.BackupKeep,
		Logger: logging,
	}
	key, err := backup.Run(ctx)
	if err != nil {
		logging.Fatal("Backup failed", zap.Error(err))
	}
	logging.Info("Backup process completed", zap.String("bucket", cfg.BackupS3Bucket), zap.String("key", key))
}
