package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"task-bounty-system/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "lifecycle_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Bounty{}, &models.BountySubmission{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestLifecycle(t *testing.T, now time.Time) *LifecycleService {
	t.Helper()
	s := NewLifecycleService(newTestDB(t))
	s.Now = func() time.Time { return now }
	return s
}

func seedBounty(t *testing.T, db *gorm.DB, createdAt time.Time, hours, minutes int, status string) models.Bounty {
	t.Helper()
	b := models.Bounty{
		ID:              uuid.NewString(),
		Title:           "Find the off-by-one",
		Reward:          "50 USDC",
		DurationHours:   hours,
		DurationMinutes: minutes,
		Status:          status,
		CreatedBy:       "admin-1",
		CreatedAt:       createdAt,
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("failed to seed bounty: %v", err)
	}
	return b
}

func fetchBounty(t *testing.T, db *gorm.DB, id string) models.Bounty {
	t.Helper()
	var b models.Bounty
	if err := db.First(&b, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to fetch bounty %s: %v", id, err)
	}
	return b
}

func TestReconcileClosesExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	expired := seedBounty(t, s.DB, now.Add(-2*time.Hour), 1, 30, models.BountyStatusActive)
	live := seedBounty(t, s.DB, now.Add(-10*time.Minute), 1, 0, models.BountyStatusActive)

	if closed := s.Reconcile(context.Background()); closed != 1 {
		t.Fatalf("Reconcile closed %d bounties, want 1", closed)
	}
	if got := fetchBounty(t, s.DB, expired.ID).Status; got != models.BountyStatusClosed {
		t.Errorf("expired bounty status = %q, want %q", got, models.BountyStatusClosed)
	}
	if got := fetchBounty(t, s.DB, live.ID).Status; got != models.BountyStatusActive {
		t.Errorf("live bounty status = %q, want %q", got, models.BountyStatusActive)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	seedBounty(t, s.DB, now.Add(-1*time.Hour), 0, 30, models.BountyStatusActive)

	if closed := s.Reconcile(context.Background()); closed != 1 {
		t.Fatalf("first Reconcile closed %d bounties, want 1", closed)
	}
	if closed := s.Reconcile(context.Background()); closed != 0 {
		t.Errorf("second Reconcile closed %d bounties, want 0", closed)
	}
}

func TestReconcileClosesZeroDurationBounty(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	// Zero duration is legal; the window ends the instant it opens, so the
	// first pass after creation closes it.
	b := seedBounty(t, s.DB, now, 0, 0, models.BountyStatusActive)

	if closed := s.Reconcile(context.Background()); closed != 1 {
		t.Fatalf("Reconcile closed %d bounties, want 1", closed)
	}
	if got := fetchBounty(t, s.DB, b.ID).Status; got != models.BountyStatusClosed {
		t.Errorf("zero-duration bounty status = %q, want %q", got, models.BountyStatusClosed)
	}
}

func TestReconcileNeverReopens(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	// Closed early, window still open for another two hours.
	b := seedBounty(t, s.DB, now.Add(-5*time.Minute), 2, 0, models.BountyStatusClosed)

	if closed := s.Reconcile(context.Background()); closed != 0 {
		t.Fatalf("Reconcile closed %d bounties, want 0", closed)
	}
	if got := fetchBounty(t, s.DB, b.ID).Status; got != models.BountyStatusClosed {
		t.Errorf("early-closed bounty status = %q, want %q", got, models.BountyStatusClosed)
	}
}

func TestReconcileRespectsDurationExtension(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	// 30m window opened 40m ago: would be closed on the next pass.
	b := seedBounty(t, s.DB, now.Add(-40*time.Minute), 0, 30, models.BountyStatusActive)

	// Admin extends the duration before the pass runs. The end time is
	// derived, so nothing else needs recomputing.
	if err := s.DB.Model(&models.Bounty{}).Where("id = ?", b.ID).
		Update("duration_minutes", 90).Error; err != nil {
		t.Fatalf("failed to extend duration: %v", err)
	}

	if closed := s.Reconcile(context.Background()); closed != 0 {
		t.Fatalf("Reconcile closed %d bounties, want 0 after extension", closed)
	}
	if got := fetchBounty(t, s.DB, b.ID).Status; got != models.BountyStatusActive {
		t.Errorf("extended bounty status = %q, want %q", got, models.BountyStatusActive)
	}
}

func TestSubmitToBounty(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	b := seedBounty(t, s.DB, now.Add(-10*time.Minute), 1, 0, models.BountyStatusActive)

	sub, err := s.SubmitToBounty(context.Background(), b.ID, "user-1", "https://github.com/user-1/fix", "PR with the fix")
	if err != nil {
		t.Fatalf("SubmitToBounty failed: %v", err)
	}
	if sub.Status != models.SubmissionStatusSubmitted {
		t.Errorf("submission status = %q, want %q", sub.Status, models.SubmissionStatusSubmitted)
	}
	if sub.BountyID != b.ID || sub.UserID != "user-1" {
		t.Errorf("submission keys = (%q, %q), want (%q, %q)", sub.BountyID, sub.UserID, b.ID, "user-1")
	}
}

func TestSubmitToBountyMissingLink(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	b := seedBounty(t, s.DB, now, 1, 0, models.BountyStatusActive)

	if _, err := s.SubmitToBounty(context.Background(), b.ID, "user-1", "   ", ""); !errors.Is(err, ErrSubmissionLinkMissing) {
		t.Errorf("SubmitToBounty error = %v, want ErrSubmissionLinkMissing", err)
	}
}

func TestSubmitToBountyNotFound(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	if _, err := s.SubmitToBounty(context.Background(), uuid.NewString(), "user-1", "https://example.com/work", ""); !errors.Is(err, ErrBountyNotFound) {
		t.Errorf("SubmitToBounty error = %v, want ErrBountyNotFound", err)
	}
}

func TestSubmitToBountyDuplicate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	b := seedBounty(t, s.DB, now.Add(-5*time.Minute), 2, 0, models.BountyStatusActive)

	if _, err := s.SubmitToBounty(context.Background(), b.ID, "user-1", "https://example.com/first", ""); err != nil {
		t.Fatalf("first SubmitToBounty failed: %v", err)
	}
	if _, err := s.SubmitToBounty(context.Background(), b.ID, "user-1", "https://example.com/second", ""); !errors.Is(err, ErrDuplicateSubmission) {
		t.Errorf("second SubmitToBounty error = %v, want ErrDuplicateSubmission", err)
	}

	// A different user is still welcome.
	if _, err := s.SubmitToBounty(context.Background(), b.ID, "user-2", "https://example.com/other", ""); err != nil {
		t.Errorf("SubmitToBounty for second user failed: %v", err)
	}
}

func TestDuplicateSubmissionUniqueIndex(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	b := seedBounty(t, s.DB, now, 1, 0, models.BountyStatusActive)

	// Insert directly, bypassing the service's pre-check, to prove the
	// composite index is the real guard.
	first := models.BountySubmission{
		ID: uuid.NewString(), BountyID: b.ID, UserID: "user-1",
		SubmissionLink: "https://example.com/a", Status: models.SubmissionStatusSubmitted,
	}
	if err := s.DB.Create(&first).Error; err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	second := models.BountySubmission{
		ID: uuid.NewString(), BountyID: b.ID, UserID: "user-1",
		SubmissionLink: "https://example.com/b", Status: models.SubmissionStatusSubmitted,
	}
	if err := s.DB.Create(&second).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("second insert error = %v, want gorm.ErrDuplicatedKey", err)
	}
}

func TestSubmitToExpiredBounty(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	// Persisted status is stale 'active', but the window closed 30m ago.
	b := seedBounty(t, s.DB, now.Add(-1*time.Hour), 0, 30, models.BountyStatusActive)

	if _, err := s.SubmitToBounty(context.Background(), b.ID, "user-1", "https://example.com/late", ""); !errors.Is(err, ErrBountyNotActive) {
		t.Errorf("SubmitToBounty error = %v, want ErrBountyNotActive", err)
	}
	// The submit path reconciled on its way in.
	if got := fetchBounty(t, s.DB, b.ID).Status; got != models.BountyStatusClosed {
		t.Errorf("bounty status after rejected submit = %q, want %q", got, models.BountyStatusClosed)
	}
}

func TestSubmitToEarlyClosedBounty(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestLifecycle(t, now)

	// Closed by an admin with an hour still left on the clock.
	b := seedBounty(t, s.DB, now.Add(-5*time.Minute), 1, 0, models.BountyStatusClosed)

	if _, err := s.SubmitToBounty(context.Background(), b.ID, "user-1", "https://example.com/work", ""); !errors.Is(err, ErrBountyNotActive) {
		t.Errorf("SubmitToBounty error = %v, want ErrBountyNotActive", err)
	}
}

func TestSubmitJustBeforeExpiry(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// One second before the 90-minute mark.
	now := createdAt.Add(90*time.Minute - time.Second)
	s := newTestLifecycle(t, now)

	b := seedBounty(t, s.DB, createdAt, 1, 30, models.BountyStatusActive)

	if _, err := s.SubmitToBounty(context.Background(), b.ID, "user-1", "https://example.com/just-in-time", ""); err != nil {
		t.Fatalf("SubmitToBounty failed: %v", err)
	}

	// One second later the same bounty rejects a second user.
	s.Now = func() time.Time { return createdAt.Add(90 * time.Minute) }
	if _, err := s.SubmitToBounty(context.Background(), b.ID, "user-2", "https://example.com/too-late", ""); !errors.Is(err, ErrBountyNotActive) {
		t.Errorf("SubmitToBounty at expiry error = %v, want ErrBountyNotActive", err)
	}
}
