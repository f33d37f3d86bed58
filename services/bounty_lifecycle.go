// services/bounty_lifecycle.go
package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"task-bounty-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel errors returned by the lifecycle engine. Handlers map these to
// HTTP statuses; everything else is treated as a server error.
var (
	ErrBountyNotFound        = errors.New("bounty not found")
	ErrBountyNotActive       = errors.New("bounty is not active or has expired")
	ErrDuplicateSubmission   = errors.New("user has already submitted to this bounty")
	ErrSubmissionLinkMissing = errors.New("submission_link is required")
)

// LifecycleService owns bounty status reconciliation and the submission
// guard. Every read path that exposes bounty status calls Reconcile first,
// so the persisted status is an eventually-consistent mirror of the
// computed one. Decisions are always made against the computed status.
type LifecycleService struct {
	DB *gorm.DB

	// WriteTimeout bounds the persistence calls inside a reconcile pass so
	// a slow store cannot stall every read.
	WriteTimeout time.Duration

	// Now is swappable for tests.
	Now func() time.Time
}

func NewLifecycleService(db *gorm.DB) *LifecycleService {
	return &LifecycleService{
		DB:           db,
		WriteTimeout: 5 * time.Second,
		Now:          time.Now,
	}
}

// Reconcile closes every active bounty whose computed end time has passed.
// Idempotent: the UPDATE is predicated on status = 'active', so a second
// pass with no time advance writes nothing. Per-bounty persistence failures
// are logged and never abort the batch or the calling read.
func (s *LifecycleService) Reconcile(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.WriteTimeout)
	defer cancel()

	var bounties []models.Bounty
	if err := s.DB.WithContext(ctx).
		Where("status = ?", models.BountyStatusActive).
		Find(&bounties).Error; err != nil {
		log.Printf("[RECONCILE] DB error fetching active bounties: %v", err)
		return 0
	}

	now := s.Now()
	closed := 0
	for _, b := range bounties {
		if !b.ExpiredAt(now) {
			continue
		}
		// Only the status flips; no other field is touched.
		result := s.DB.WithContext(ctx).Model(&models.Bounty{}).
			Where("id = ? AND status = ?", b.ID, models.BountyStatusActive).
			Update("status", models.BountyStatusClosed)
		if result.Error != nil {
			log.Printf("[RECONCILE] failed to close bounty %s: %v", b.ID, result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			closed++
			log.Printf("[RECONCILE] bounty %s (%q) expired at %s, closed", b.ID, b.Title, b.WindowEnd().UTC().Format(time.RFC3339))
		}
	}
	return closed
}

// SubmitToBounty records a user's submission against an active, unexpired
// bounty. The duplicate pre-check is a fast path; the composite unique
// index on (bounty_id, user_id) is what actually prevents a race between
// check and insert.
func (s *LifecycleService) SubmitToBounty(ctx context.Context, bountyID, userID, submissionLink, description string) (*models.BountySubmission, error) {
	if strings.TrimSpace(submissionLink) == "" {
		return nil, ErrSubmissionLinkMissing
	}

	// Refresh persisted statuses first; failures degrade to the computed
	// status checks below rather than failing the submit.
	s.Reconcile(ctx)

	var bounty models.Bounty
	if err := s.DB.WithContext(ctx).First(&bounty, "id = ?", bountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBountyNotFound
		}
		return nil, err
	}

	// The computed status is ground truth here — a bounty whose window has
	// passed is rejected even if the reconcile write above failed and the
	// row still reads 'active'.
	now := s.Now()
	if bounty.Status != models.BountyStatusActive || bounty.ExpiredAt(now) {
		return nil, ErrBountyNotActive
	}

	var existing int64
	if err := s.DB.WithContext(ctx).Model(&models.BountySubmission{}).
		Where("bounty_id = ? AND user_id = ?", bountyID, userID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrDuplicateSubmission
	}

	submission := &models.BountySubmission{
		ID:             uuid.NewString(),
		BountyID:       bountyID,
		UserID:         userID,
		SubmissionLink: submissionLink,
		Description:    description,
		Status:         models.SubmissionStatusSubmitted,
	}
	if err := s.DB.WithContext(ctx).Create(submission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race to a concurrent submit for the same pair.
			return nil, ErrDuplicateSubmission
		}
		return nil, err
	}
	return submission, nil
}

// lifecycleErrorResponse maps engine sentinels onto JSON error bodies.
// Returns false if err is not an engine sentinel.
func lifecycleErrorResponse(c *fiber.Ctx, err error) (bool, error) {
	switch {
	case errors.Is(err, ErrBountyNotFound):
		return true, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrBountyNotActive):
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrDuplicateSubmission):
		return true, c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrSubmissionLinkMissing):
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return false, nil
}
