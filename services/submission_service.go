// services/submission_service.go
package services

import (
	"errors"
	"log"

	"task-bounty-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SubmissionService handles bounty submissions on both sides: the user
// submit/list surface and the admin review surface.
type SubmissionService struct {
	DB        *gorm.DB
	Lifecycle *LifecycleService
}

func NewSubmissionService(db *gorm.DB, lifecycle *LifecycleService) *SubmissionService {
	return &SubmissionService{DB: db, Lifecycle: lifecycle}
}

type SubmitBountyRequest struct {
	SubmissionLink string `json:"submission_link"`
	Description    string `json:"description,omitempty"`
}

// SubmitBounty records the authenticated user's submission for a bounty.
// All lifecycle checks live in the engine; this handler only translates.
func (s *SubmissionService) SubmitBounty(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	bountyID := c.Params("bountyId")
	if bountyID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bountyId is required in path"})
	}

	var req SubmitBountyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	submission, err := s.Lifecycle.SubmitToBounty(c.Context(), bountyID, userID, req.SubmissionLink, req.Description)
	if err != nil {
		if handled, resp := lifecycleErrorResponse(c, err); handled {
			return resp
		}
		log.Printf("DB error creating bounty submission (bounty=%s user=%s): %v", bountyID, userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to submit to bounty"})
	}

	return c.Status(fiber.StatusCreated).JSON(submission)
}

// GetUserBountySubmissions lists the authenticated user's submissions,
// newest first, with each parent bounty's computed window attached.
func (s *SubmissionService) GetUserBountySubmissions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var submissions []models.BountySubmission
	if err := s.DB.Preload("Bounty").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		log.Printf("DB error fetching bounty submissions for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch submissions"})
	}

	for i := range submissions {
		if submissions[i].Bounty != nil {
			submissions[i].Bounty.AttachWindow()
		}
	}

	return c.JSON(submissions)
}

// GetBountySubmissions lists all bounty submissions with optional
// status/bounty/user filters (Admin only).
func (s *SubmissionService) GetBountySubmissions(c *fiber.Ctx) error {
	s.Lifecycle.Reconcile(c.Context())

	query := s.DB.Preload("Bounty").Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if bountyID := c.Query("bounty_id"); bountyID != "" {
		query = query.Where("bounty_id = ?", bountyID)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var submissions []models.BountySubmission
	if err := query.Find(&submissions).Error; err != nil {
		log.Printf("DB error fetching bounty submissions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch submissions"})
	}

	for i := range submissions {
		if submissions[i].Bounty != nil {
			submissions[i].Bounty.AttachWindow()
		}
	}

	return c.JSON(submissions)
}

type ReviewBountySubmissionRequest struct {
	Status       string `json:"status"`
	AdminComment string `json:"admin_comment,omitempty"`
	Reward       string `json:"reward,omitempty"`
}

// UpdateBountySubmissionStatus approves or rejects a submission, optionally
// attaching a comment and a reward override (Admin only). Review decisions
// are independent of the parent bounty's lifecycle.
func (s *SubmissionService) UpdateBountySubmissionStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id required"})
	}
	var req ReviewBountySubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if !models.ValidSubmissionStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be submitted, approved or rejected"})
	}

	var submission models.BountySubmission
	if err := s.DB.First(&submission, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "bounty submission not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.AdminComment != "" {
		updates["admin_comment"] = req.AdminComment
	}
	if req.Reward != "" {
		updates["reward"] = req.Reward
	}

	if err := s.DB.Model(&submission).Where("id = ?", id).Updates(updates).Error; err != nil {
		log.Printf("DB error reviewing bounty submission %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update submission"})
	}

	s.DB.First(&submission, "id = ?", id)
	return c.JSON(submission)
}
