package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBPath          string `envconfig:"DB_PATH" default:"livestock.db"`
	DBMaxOpenConns  int    `envconfig:"DB_MAX_OPEN_CONNS" default:"4"`
	DBBusyTimeoutMS int    `envconfig:"DB_BUSY_TIMEOUT_MS" default:"5000"`
	DBLogLevel      string `envconfig:"DB_LOG_LEVEL" default:"silent"` // silent, error, warn, info

	HTTPPort       string `envconfig:"HTTP_PORT" default:"8000"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	LogMode        string `envconfig:"LOG_MODE" default:"production"`

	// Standard-Impfstoffe und -Krankheiten beim Start anlegen
	SeedCatalog       bool          `envconfig:"SEED_CATALOG" default:"true"`
	ReferenceCacheTTL time.Duration `envconfig:"REFERENCE_CACHE_TTL" default:"10m"`

	// Backups der SQLite-Datei nach S3
	BackupEnabled  bool   `envconfig:"BACKUP_ENABLED" default:"false"`
	BackupSchedule string `envconfig:"BACKUP_SCHEDULE" default:"0 3 * * *"`
	BackupKeep     int    `envconfig:"BACKUP_KEEP" default:"7"`
	BackupPrefix   string `envconfig:"BACKUP_PREFIX" default:"livestock/"`
	BackupS3Key    string `envconfig:"BACKUP_S3_KEY"`
	BackupS3Secret string `envconfig:"BACKUP_S3_SECRET"`
	BackupS3URL    string `envconfig:"BACKUP_S3_URL"`
	BackupS3Region string `envconfig:"BACKUP_S3_REGION"`
	BackupS3Bucket string `envconfig:"BACKUP_S3_BUCKET"`
}

// Origins gibt die erlaubten CORS-Origins als Liste zurück.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate prüft Kombinationen, die envconfig allein nicht abdeckt.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.DBMaxOpenConns < 1 {
		return errors.New("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.BackupEnabled {
		if c.BackupS3URL == "" || c.BackupS3Bucket == "" || c.BackupS3Key == "" || c.BackupS3Secret == "" || c.BackupS3Region == "" {
			return errors.New("BACKUP_ENABLED requires BACKUP_S3_URL, BACKUP_S3_BUCKET, BACKUP_S3_KEY, BACKUP_S3_SECRET and BACKUP_S3_REGION")
		}
		if c.BackupKeep < 1 {
			return errors.New("BACKUP_KEEP must be at least 1")
		}
	}
	return nil
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return &c, err
	}
	return &c, c.Validate()
}
