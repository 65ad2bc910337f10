package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ObjectStore ist der Teil des S3-Clients, den das Backup benötigt. *s3.Client erfüllt es.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Snapshotter erzeugt eine konsistente Kopie der Datenbank. *storage.DB erfüllt es.
type Snapshotter interface {
	Snapshot(ctx context.Context, dest string) error
}

// BackupService sichert die SQLite-Datei gzip-komprimiert nach S3 und rotiert alte Sicherungen.
type BackupService struct {
	DB      Snapshotter
	Store   ObjectStore
	Bucket  string
	Prefix  string
	Keep    int
	Logger  *zap.Logger
	Metrics *Metrics
	Now     func() time.Time
}

const backupBaseName = "livestock-"

// Run erstellt ein Backup, lädt es hoch und löscht alles jenseits der Keep neuesten Sicherungen.
// Zurückgegeben wird der Objekt-Key des neuen Backups.
func (b *BackupService) Run(ctx context.Context) (key string, err error) {
	defer func() { b.Metrics.backupFinished(err) }()
	b.Logger.Info("Starting database backup...")

	dir, err := os.MkdirTemp("", "livestock-backup-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp dir")
	}
	defer os.RemoveAll(dir)

	// 1. Konsistenten Snapshot ziehen
	snapshot := filepath.Join(dir, "snapshot.db")
	if err := b.DB.Snapshot(ctx, snapshot); err != nil {
		b.Logger.Error("Database snapshot failed", zap.Error(err))
		return "", err
	}

	// 2. Komprimieren
	data, err := gzipFile(snapshot)
	if err != nil {
		b.Logger.Error("Compressing snapshot failed", zap.Error(err))
		return "", err
	}

	// 3. Hochladen
	key = fmt.Sprintf("%s%s%s.db.gz", b.Prefix, backupBaseName, b.now().UTC().Format("2006-01-02T15-04-05Z"))
	_, err = b.Store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		b.Logger.Error("Uploading backup failed", zap.String("key", key), zap.Error(err))
		return "", errors.Wrap(err, "upload backup")
	}
	b.Logger.Info("Backup uploaded", zap.String("bucket", b.Bucket), zap.String("key", key), zap.Int("bytes", len(data)))

	// 4. Alte Backups rotieren
	if err := b.rotate(ctx); err != nil {
		b.Logger.Error("Backup rotation failed", zap.Error(err))
		return key, err
	}
	return key, nil
}

func (b *BackupService) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *BackupService) rotate(ctx context.Context) error {
	var backups []s3types.Object
	paginator := s3.NewListObjectsV2Paginator(b.Store, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.Bucket),
		Prefix: aws.String(b.Prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return errors.Wrap(err, "list backups")
		}
		for _, obj := range page.Contents {
			if strings.HasPrefix(aws.ToString(obj.Key), b.Prefix+backupBaseName) {
				backups = append(backups, obj)
			}
		}
	}

	if len(backups) <= b.Keep {
		b.Logger.Debug("No backup rotation needed", zap.Int("backups", len(backups)), zap.Int("keep", b.Keep))
		return nil
	}

	sort.Slice(backups, func(i, j int) bool {
		return aws.ToTime(backups[i].LastModified).After(aws.ToTime(backups[j].LastModified))
	})

	for _, obj := range backups[b.Keep:] {
		b.Logger.Info("Deleting old backup", zap.String("key", aws.ToString(obj.Key)))
		_, err := b.Store.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.Bucket),
			Key:    obj.Key,
		})
		if err != nil {
			b.Logger.Warn("Deleting old backup failed", zap.String("key", aws.ToString(obj.Key)), zap.Error(err))
		}
	}
	return nil
}

func gzipFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := io.Copy(gzipWriter, f); err != nil {
		return nil, errors.Wrap(err, "compress snapshot")
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, errors.Wrap(err, "finish gzip stream")
	}
	return buf.Bytes(), nil
}
