package storage

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"livestock-backend/models"
)

const defaultBusyTimeout = 5 * time.Second

// Options steuert, wie die SQLite-Datei geöffnet wird.
type Options struct {
	Path         string
	MaxOpenConns int
	BusyTimeout  time.Duration
	LogLevel     logger.LogLevel
}

// DB verwaltet die eingebettete SQLite-Datenbank. Schreibende Transaktionen
// laufen über einen eigenen Pool mit BEGIN IMMEDIATE, Lesezugriffe über einen
// zweiten Pool, der im WAL-Modus nicht auf Schreiber warten muss.
type DB struct {
	write *gorm.DB
	read  *gorm.DB
	path  string
	log   *zap.Logger
}

// Open öffnet (oder erstellt) die Datenbank, aktiviert WAL und legt das Schema an.
// Schlägt ein Schritt fehl, wird nichts offen gelassen.
func Open(ctx context.Context, opts Options, log *zap.Logger) (*DB, error) {
	if opts.Path == "" {
		return nil, errors.New("database path is empty")
	}
	if opts.MaxOpenConns < 1 {
		opts.MaxOpenConns = 1
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Silent
	}
	log = log.With(zap.String("db_path", opts.Path))
	log.Info("Opening SQLite database")

	write, err := gorm.Open(sqlite.Open(buildDSN(opts, "immediate")), gormConfig(opts.LogLevel))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite writer")
	}
	d := &DB{write: write, path: opts.Path, log: log}

	if err := d.enableWAL(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	if err := d.migrate(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}

	read, err := gorm.Open(sqlite.Open(buildDSN(opts, "deferred")), gormConfig(opts.LogLevel))
	if err != nil {
		_ = d.Close()
		return nil, errors.Wrap(err, "open sqlite reader")
	}
	d.read = read

	if err := setPoolSize(write, opts.MaxOpenConns); err != nil {
		_ = d.Close()
		return nil, err
	}
	if err := setPoolSize(read, opts.MaxOpenConns); err != nil {
		_ = d.Close()
		return nil, err
	}

	log.Info("Database WAL enabled and ready", zap.Int("max_open_conns", opts.MaxOpenConns))
	return d, nil
}

func gormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}
}

// buildDSN setzt die Pragmas als DSN-Parameter, damit jede neue Pool-Verbindung sie erhält.
func buildDSN(opts Options, txlock string) string {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(opts.BusyTimeout.Milliseconds(), 10))
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	q.Set("_txlock", txlock)
	return opts.Path + "?" + q.Encode()
}

func setPoolSize(db *gorm.DB, n int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "access connection pool")
	}
	sqlDB.SetMaxOpenConns(n)
	sqlDB.SetMaxIdleConns(n)
	return nil
}

func (d *DB) enableWAL(ctx context.Context) error {
	var mode string
	if err := d.write.WithContext(ctx).Raw("PRAGMA journal_mode = WAL").Scan(&mode).Error; err != nil {
		return errors.Wrap(err, "set journal_mode")
	}
	if !strings.EqualFold(mode, "wal") {
		return errors.Errorf("journal_mode is %q, expected wal", mode)
	}
	return nil
}

func (d *DB) migrate(ctx context.Context) error {
	d.log.Info("Running database auto-migration...")
	err := d.write.WithContext(ctx).AutoMigrate(
		&models.GoatRecord{},
		&models.Vaccine{},
		&models.Disease{},
		&models.GoatVaccine{},
		&models.GoatDisease{},
	)
	return errors.Wrap(err, "auto-migrate schema")
}

// Write liefert eine Sitzung auf dem Schreib-Pool.
func (d *DB) Write(ctx context.Context) *gorm.DB {
	return d.write.WithContext(ctx)
}

// Read liefert eine Sitzung auf dem Lese-Pool.
func (d *DB) Read(ctx context.Context) *gorm.DB {
	return d.read.WithContext(ctx)
}

// WriteTx führt fn in einer schreibenden Transaktion aus. Bei Fehler oder Panic wird zurückgerollt.
func (d *DB) WriteTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.write.WithContext(ctx).Transaction(fn)
}

// ReadTx führt fn in einer Lesetransaktion aus, alle Abfragen sehen denselben Snapshot.
func (d *DB) ReadTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.read.WithContext(ctx).Transaction(fn)
}

// Ping prüft, ob der Schreib-Pool erreichbar ist.
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.write.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Snapshot schreibt eine konsistente Kopie der Datenbank nach dest. dest darf noch nicht existieren.
func (d *DB) Snapshot(ctx context.Context, dest string) error {
	if err := d.write.WithContext(ctx).Exec("VACUUM INTO ?", dest).Error; err != nil {
		return errors.Wrap(err, "vacuum into snapshot")
	}
	return nil
}

// Path gibt den Pfad der Datenbankdatei zurück.
func (d *DB) Path() string { return d.path }

// Close schließt beide Pools.
func (d *DB) Close() error {
	var firstErr error
	for _, g := range []*gorm.DB{d.write, d.read} {
		if g == nil {
			continue
		}
		sqlDB, err := g.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
