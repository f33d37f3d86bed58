// services/bounty_service.go
package services

import (
	"errors"
	"log"
	"time"

	"task-bounty-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BountyService struct {
	DB        *gorm.DB
	Lifecycle *LifecycleService
}

func NewBountyService(db *gorm.DB, lifecycle *LifecycleService) *BountyService {
	return &BountyService{DB: db, Lifecycle: lifecycle}
}

type CreateBountyRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Reward          string `json:"reward"`
	DurationHours   int    `json:"duration_hours"`
	DurationMinutes int    `json:"duration_minutes"`
}

// UpdateBountyRequest defines the structure for partial updates
type UpdateBountyRequest struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	Reward          *string `json:"reward,omitempty"`
	DurationHours   *int    `json:"duration_hours,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
}

// CreateBounty opens a new bounty (Admin only). A zero-duration bounty is
// legal and will be closed by the first reconcile pass after creation.
func (s *BountyService) CreateBounty(c *fiber.Ctx) error {
	var req CreateBountyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	if req.Reward == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reward is required"})
	}
	if err := models.ValidateDuration(req.DurationHours, req.DurationMinutes); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	bounty := &models.Bounty{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Reward:          req.Reward,
		DurationHours:   req.DurationHours,
		DurationMinutes: req.DurationMinutes,
		Status:          models.BountyStatusActive,
		CreatedBy:       c.Locals("user_id").(string),
	}
	if err := s.DB.Create(bounty).Error; err != nil {
		log.Printf("DB error creating bounty: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create bounty"})
	}

	bounty.AttachWindow()
	return c.Status(fiber.StatusCreated).JSON(bounty)
}

// GetBounties lists all bounties with submission counts (Admin only).
func (s *BountyService) GetBounties(c *fiber.Ctx) error {
	s.Lifecycle.Reconcile(c.Context())

	var bounties []models.Bounty
	if err := s.DB.Order("created_at DESC").Find(&bounties).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch bounties"})
	}

	for i := range bounties {
		var count int64
		if err := s.DB.Model(&models.BountySubmission{}).
			Where("bounty_id = ?", bounties[i].ID).
			Count(&count).Error; err != nil {
			log.Printf("DB error counting submissions for bounty %s: %v", bounties[i].ID, err)
		}
		bounties[i].SubmissionCount = count
		bounties[i].AttachWindow()
	}

	return c.JSON(bounties)
}

// UpdateBounty applies a partial update (Admin only). Changing the duration
// of an active bounty moves its computed end time with no extra recompute
// step; the very next reconcile or read sees the new window.
func (s *BountyService) UpdateBounty(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id required"})
	}
	var req UpdateBountyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	// Bring the persisted status up to date before deciding whether the
	// duration may still be edited.
	s.Lifecycle.Reconcile(c.Context())

	var bounty models.Bounty
	if err := s.DB.First(&bounty, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "bounty not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		if *req.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title cannot be empty"})
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Reward != nil {
		if *req.Reward == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reward cannot be empty"})
		}
		updates["reward"] = *req.Reward
	}
	if req.DurationHours != nil || req.DurationMinutes != nil {
		if bounty.ComputedStatus(s.Lifecycle.Now()) == models.BountyStatusClosed {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot change duration of a closed bounty"})
		}
		hours := bounty.DurationHours
		minutes := bounty.DurationMinutes
		if req.DurationHours != nil {
			hours = *req.DurationHours
		}
		if req.DurationMinutes != nil {
			minutes = *req.DurationMinutes
		}
		if err := models.ValidateDuration(hours, minutes); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		updates["duration_hours"] = hours
		updates["duration_minutes"] = minutes
	}

	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no fields to update"})
	}

	if err := s.DB.Model(&models.Bounty{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		log.Printf("DB error updating bounty %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update failed"})
	}

	var updated models.Bounty
	if err := s.DB.First(&updated, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch updated bounty"})
	}
	updated.AttachWindow()
	return c.JSON(updated)
}

// CloseBounty force-closes a bounty before its window ends (Admin only).
// Closing an already-closed bounty is a no-op, reported informationally.
func (s *BountyService) CloseBounty(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id required"})
	}

	var bounty models.Bounty
	if err := s.DB.First(&bounty, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "bounty not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	alreadyClosed := bounty.Status == models.BountyStatusClosed
	if !alreadyClosed {
		if err := s.DB.Model(&models.Bounty{}).
			Where("id = ? AND status = ?", id, models.BountyStatusActive).
			Update("status", models.BountyStatusClosed).Error; err != nil {
			log.Printf("DB error closing bounty %s: %v", id, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to close bounty"})
		}
		bounty.Status = models.BountyStatusClosed
	}

	bounty.AttachWindow()
	return c.JSON(fiber.Map{
		"message":        "bounty closed",
		"already_closed": alreadyClosed,
		"bounty":         bounty,
	})
}

// GetActiveBounties lists open bounties for the authenticated user, with
// their own submission folded in. Bounties whose computed window has passed
// are filtered out even when a reconcile write failed and the row still
// reads 'active'.
func (s *BountyService) GetActiveBounties(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	s.Lifecycle.Reconcile(c.Context())

	var bounties []models.Bounty
	if err := s.DB.Where("status = ?", models.BountyStatusActive).
		Order("created_at DESC").
		Find(&bounties).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch bounties"})
	}

	now := s.Lifecycle.Now()
	type bountyWithStatus struct {
		models.Bounty
		RemainingMinutes int                      `json:"remaining_minutes"`
		HasSubmitted     bool                     `json:"has_submitted"`
		UserSubmission   *models.BountySubmission `json:"user_submission,omitempty"`
	}

	response := make([]bountyWithStatus, 0, len(bounties))
	for _, b := range bounties {
		if b.ExpiredAt(now) {
			continue
		}

		var submission models.BountySubmission
		hasSubmitted := true
		err := s.DB.Where("bounty_id = ? AND user_id = ?", b.ID, userID).First(&submission).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("DB error fetching user submission for bounty %s: %v", b.ID, err)
			}
			hasSubmitted = false
		}

		b.AttachWindow()
		entry := bountyWithStatus{
			Bounty:           b,
			RemainingMinutes: b.RemainingMinutes(now),
			HasSubmitted:     hasSubmitted,
		}
		if hasSubmitted {
			entry.UserSubmission = &submission
		}
		response = append(response, entry)
	}

	return c.JSON(response)
}

// GetAllBountiesDebug returns every bounty with its computed window and the
// evaluation instant. Kept for operators chasing clock/status mismatches.
func (s *BountyService) GetAllBountiesDebug(c *fiber.Ctx) error {
	s.Lifecycle.Reconcile(c.Context())

	var bounties []models.Bounty
	if err := s.DB.Order("created_at DESC").Find(&bounties).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch bounties"})
	}

	now := s.Lifecycle.Now()
	type bountyDebug struct {
		models.Bounty
		CurrentTime    string `json:"current_time"`
		IsBeforeEnd    bool   `json:"is_before_end"`
		ShouldBeActive bool   `json:"should_be_active"`
	}

	response := make([]bountyDebug, 0, len(bounties))
	for _, b := range bounties {
		expired := b.ExpiredAt(now)
		b.AttachWindow()
		response = append(response, bountyDebug{
			Bounty:         b,
			CurrentTime:    now.UTC().Format(time.RFC3339),
			IsBeforeEnd:    !expired,
			ShouldBeActive: !expired,
		})
	}

	return c.JSON(response)
}
