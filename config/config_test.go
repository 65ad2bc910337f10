package config

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestLoadDefaults(t *testing.T) {
	is := is.New(t)
	t.Setenv("DB_PATH", "herd.db")

	cfg, err := Load()
	is.NoErr(err)
	is.Equal(cfg.DBPath, "herd.db")
	is.Equal(cfg.DBMaxOpenConns, 4)
	is.Equal(cfg.HTTPPort, "8000")
	is.Equal(cfg.ReferenceCacheTTL, 10*time.Minute)
	is.True(cfg.SeedCatalog)
	is.True(!cfg.BackupEnabled)
}

func TestValidateBackupRequiresS3(t *testing.T) {
	is := is.New(t)
	cfg := Config{DBPath: "x.db", DBMaxOpenConns: 1, BackupEnabled: true, BackupKeep: 3}
	is.True(cfg.Validate() != nil)

	cfg.BackupS3URL = "https://s3.example.org"
	cfg.BackupS3Bucket = "bucket"
	cfg.BackupS3Key = "key"
	cfg.BackupS3Secret = "secret"
	cfg.BackupS3Region = "eu-central-1"
	is.NoErr(cfg.Validate())
}

func TestOrigins(t *testing.T) {
	is := is.New(t)
	cfg := Config{AllowedOrigins: " http://a.example , ,http://b.example"}
	is.Equal(cfg.Origins(), []string{"http://a.example", "http://b.example"})
}
