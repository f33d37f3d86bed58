package workers

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newWorkerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "worker_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func TestGetLastSyncTime(t *testing.T) {
	epoch := time.Unix(0, 0)

	t.Run("query failure falls back to epoch", func(t *testing.T) {
		// No platform_users table at all.
		w := &UserSyncWorker{db: newWorkerTestDB(t)}
		if got := w.getLastSyncTime(); !got.Equal(epoch) {
			t.Errorf("getLastSyncTime() = %v, want epoch", got)
		}
	})

	t.Run("cold start on empty table returns epoch", func(t *testing.T) {
		db := newWorkerTestDB(t)
		if err := db.Exec("CREATE TABLE platform_users (id TEXT PRIMARY KEY, updated_at DATETIME, deleted_at DATETIME)").Error; err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
		w := &UserSyncWorker{db: db}
		if got := w.getLastSyncTime(); !got.Equal(epoch) {
			t.Errorf("getLastSyncTime() = %v, want epoch", got)
		}
	})

	t.Run("returns newest live row", func(t *testing.T) {
		db := newWorkerTestDB(t)
		if err := db.Exec("CREATE TABLE platform_users (id TEXT PRIMARY KEY, updated_at DATETIME, deleted_at DATETIME)").Error; err != nil {
			t.Fatalf("failed to create table: %v", err)
		}
		older := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		newest := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		deleted := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
		if err := db.Exec("INSERT INTO platform_users (id, updated_at) VALUES ('u1', ?), ('u2', ?)", older, newest).Error; err != nil {
			t.Fatalf("failed to insert rows: %v", err)
		}
		// Soft-deleted rows must not advance the watermark.
		if err := db.Exec("INSERT INTO platform_users (id, updated_at, deleted_at) VALUES ('u3', ?, ?)", deleted, deleted).Error; err != nil {
			t.Fatalf("failed to insert deleted row: %v", err)
		}

		w := &UserSyncWorker{db: db}
		if got := w.getLastSyncTime(); !got.Equal(newest) {
			t.Errorf("getLastSyncTime() = %v, want %v", got, newest)
		}
	})
}
