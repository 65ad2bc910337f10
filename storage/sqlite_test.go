package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"livestock-backend/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "herd.db")
	db, err := Open(context.Background(), Options{Path: path, MaxOpenConns: 2}, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenEnablesWAL(t *testing.T) {
	is := is.New(t)
	db := openTestDB(t)

	var mode string
	is.NoErr(db.Read(context.Background()).Raw("PRAGMA journal_mode").Scan(&mode).Error)
	is.Equal(mode, "wal")

	var fk int
	is.NoErr(db.Write(context.Background()).Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	is.Equal(fk, 1)
}

func TestOpenCreatesSchema(t *testing.T) {
	is := is.New(t)
	db := openTestDB(t)

	m := db.Write(context.Background()).Migrator()
	for _, table := range []string{"goats", "vaccines", "diseases", "goat_vaccines", "goat_diseases"} {
		is.True(m.HasTable(table)) // table missing
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "herd.db")

	first, err := Open(context.Background(), Options{Path: path}, zap.NewNop())
	is.NoErr(err)
	is.NoErr(first.Write(context.Background()).Create(&models.Vaccine{Name: "Rabies"}).Error)
	is.NoErr(first.Close())

	second, err := Open(context.Background(), Options{Path: path}, zap.NewNop())
	is.NoErr(err)
	defer second.Close()

	var count int64
	is.NoErr(second.Read(context.Background()).Model(&models.Vaccine{}).Count(&count).Error)
	is.Equal(count, int64(1))
}

func TestOpenFailsForUnreachablePath(t *testing.T) {
	is := is.New(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	is.NoErr(os.WriteFile(blocker, []byte("not a directory"), 0o600))

	db, err := Open(context.Background(), Options{Path: filepath.Join(blocker, "herd.db")}, zap.NewNop())
	is.True(err != nil)
	is.True(db == nil)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	is := is.New(t)
	_, err := Open(context.Background(), Options{}, zap.NewNop())
	is.True(err != nil)
}

func TestWriteTxRollsBackOnError(t *testing.T) {
	is := is.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WriteTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Disease{Name: "Mastitis"}).Error; err != nil {
			return err
		}
		return boom
	})
	is.True(errors.Is(err, boom))

	var count int64
	is.NoErr(db.Read(ctx).Model(&models.Disease{}).Count(&count).Error)
	is.Equal(count, int64(0))
}

func TestSnapshotProducesOpenableCopy(t *testing.T) {
	is := is.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	is.NoErr(db.Write(ctx).Create(&models.Vaccine{Name: "CDT"}).Error)

	dest := filepath.Join(t.TempDir(), "snapshot.db")
	is.NoErr(db.Snapshot(ctx, dest))

	copyDB, err := Open(ctx, Options{Path: dest}, zap.NewNop())
	is.NoErr(err)
	defer copyDB.Close()

	var names []string
	is.NoErr(copyDB.Read(ctx).Model(&models.Vaccine{}).Pluck("name", &names).Error)
	is.Equal(names, []string{"CDT"})
}

func TestPing(t *testing.T) {
	is := is.New(t)
	db := openTestDB(t)
	is.NoErr(db.Ping(context.Background()))
	is.True(db.Path() != "")
}
