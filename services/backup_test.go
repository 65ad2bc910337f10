package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/matryer/is"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

type storedObject struct {
	data     []byte
	modified time.Time
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string]storedObject
	clock   time.Time
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects: make(map[string]storedObject),
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeObjectStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Hour)
	f.objects[aws.ToString(in.Key)] = storedObject{data: data, modified: f.clock}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectStore) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for key, obj := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key), LastModified: aws.Time(obj.modified)})
		}
	}
	return out, nil
}

func (f *fakeObjectStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeObjectStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type failingSnapshotter struct{}

func (failingSnapshotter) Snapshot(context.Context, string) error {
	return errors.New("disk full")
}

func newBackupService(t *testing.T, db Snapshotter, store ObjectStore) *BackupService {
	t.Helper()
	tick := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	return &BackupService{
		DB:      db,
		Store:   store,
		Bucket:  "herd-backups",
		Prefix:  "livestock/",
		Keep:    2,
		Logger:  zap.NewNop(),
		Metrics: NewMetrics(prometheus.NewRegistry()),
		Now: func() time.Time {
			tick = tick.Add(24 * time.Hour)
			return tick
		},
	}
}

func TestBackupUploadsCompressedSnapshot(t *testing.T) {
	is := is.New(t)
	s := newTestService(t)
	ctx := context.Background()
	_, err := s.Insert(ctx, sampleGoat("Bella", "Rabies"))
	is.NoErr(err)

	store := newFakeObjectStore()
	b := newBackupService(t, s.DB, store)

	key, err := b.Run(ctx)
	is.NoErr(err)
	is.Equal(key, "livestock/livestock-2025-06-02T03-00-00Z.db.gz")

	gz, err := gzip.NewReader(bytes.NewReader(store.objects[key].data))
	is.NoErr(err)
	raw, err := io.ReadAll(gz)
	is.NoErr(err)
	is.True(bytes.HasPrefix(raw, []byte("SQLite format 3\x00")))

	is.Equal(testutil.ToFloat64(b.Metrics.backups.WithLabelValues("success")), float64(1))
}

func TestBackupRotatesOldestBackups(t *testing.T) {
	is := is.New(t)
	s := newTestService(t)
	store := newFakeObjectStore()
	store.objects["livestock/unrelated.txt"] = storedObject{data: []byte("x"), modified: time.Unix(0, 0)}
	b := newBackupService(t, s.DB, store)

	var keys []string
	for i := 0; i < 4; i++ {
		key, err := b.Run(context.Background())
		is.NoErr(err)
		keys = append(keys, key)
	}

	is.Equal(store.keys(), []string{keys[2], keys[3], "livestock/unrelated.txt"})
}

func TestBackupSnapshotFailure(t *testing.T) {
	is := is.New(t)
	store := newFakeObjectStore()
	b := newBackupService(t, failingSnapshotter{}, store)

	_, err := b.Run(context.Background())
	is.True(err != nil)
	is.Equal(len(store.keys()), 0)
	is.Equal(testutil.ToFloat64(b.Metrics.backups.WithLabelValues("failure")), float64(1))
}

func TestBackupUploadFailure(t *testing.T) {
	is := is.New(t)
	s := newTestService(t)
	store := newFakeObjectStore()
	store.putErr = errors.New("access denied")
	b := newBackupService(t, s.DB, store)

	_, err := b.Run(context.Background())
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "access denied"))
}
