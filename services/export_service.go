// services/export_service.go
package services

import (
	"log"
	"time"

	"task-bounty-system/models"
	"task-bounty-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ExportService struct {
	DB *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{DB: db}
}

// ExportRow is one flattened task-submission line. Timestamps are rendered
// through the display timezone adapter; the stored instants stay UTC.
type ExportRow struct {
	UserName       string `json:"user_name"`
	Email          string `json:"email"`
	Telegram       string `json:"telegram"`
	Twitter        string `json:"twitter"`
	ProjectName    string `json:"project_name"`
	TaskTitle      string `json:"task_title"`
	TaskType       string `json:"task_type"`
	TaskDeadline   string `json:"task_deadline,omitempty"`
	SubmissionLink string `json:"submission_link"`
	Status         string `json:"status"`
	SubmittedAt    string `json:"submitted_at"`
	AdminComment   string `json:"admin_comment,omitempty"`
}

// GetExportData returns flattened task-submission rows with optional
// user/project/date-range filters (Admin only). Row formatting for
// CSV/Excel happens client-side; this endpoint only flattens.
func (s *ExportService) GetExportData(c *fiber.Ctx) error {
	query := s.DB.Preload("Task").Preload("Project").Order("created_at DESC")

	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if startDate := c.Query("start_date"); startDate != "" {
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_date must be YYYY-MM-DD"})
		}
		query = query.Where("created_at >= ?", start)
	}
	if endDate := c.Query("end_date"); endDate != "" {
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date must be YYYY-MM-DD"})
		}
		// Inclusive: extend to the last instant of the requested day.
		query = query.Where("created_at <= ?", end.Add(24*time.Hour-time.Nanosecond))
	}

	var submissions []models.TaskSubmission
	if err := query.Find(&submissions).Error; err != nil {
		log.Printf("DB error fetching export data: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch export data"})
	}

	// Resolve user snapshots in one pass instead of per row.
	userIDs := make([]string, 0, len(submissions))
	seen := make(map[string]bool, len(submissions))
	for _, sub := range submissions {
		if !seen[sub.UserID] {
			seen[sub.UserID] = true
			userIDs = append(userIDs, sub.UserID)
		}
	}
	usersByID := make(map[string]models.PlatformUser, len(userIDs))
	if len(userIDs) > 0 {
		var users []models.PlatformUser
		if err := s.DB.Where("external_user_id IN ?", userIDs).Find(&users).Error; err != nil {
			log.Printf("DB error fetching users for export: %v", err)
		}
		for _, u := range users {
			usersByID[u.ExternalUserID] = u
		}
	}

	rows := make([]ExportRow, 0, len(submissions))
	for _, sub := range submissions {
		row := ExportRow{
			UserName:       "Unknown",
			Email:          "N/A",
			Telegram:       "N/A",
			Twitter:        "N/A",
			ProjectName:    "Unknown",
			TaskTitle:      "Unknown",
			TaskType:       "N/A",
			SubmissionLink: sub.SubmissionLink,
			Status:         sub.Status,
			SubmittedAt:    utils.FormatDisplayTime(sub.CreatedAt),
			AdminComment:   sub.AdminComment,
		}
		if user, ok := usersByID[sub.UserID]; ok {
			row.UserName = user.Name
			if user.Email != "" {
				row.Email = user.Email
			}
			if user.TelegramUsername != "" {
				row.Telegram = user.TelegramUsername
			}
			if user.TwitterUsername != "" {
				row.Twitter = user.TwitterUsername
			}
		}
		if sub.Project != nil {
			row.ProjectName = sub.Project.Name
		}
		if sub.Task != nil {
			row.TaskTitle = sub.Task.Title
			if sub.Task.Type != "" {
				row.TaskType = sub.Task.Type
			}
			if sub.Task.Deadline != nil {
				row.TaskDeadline = utils.FormatDisplayTime(*sub.Task.Deadline)
			}
		}
		rows = append(rows, row)
	}

	return c.JSON(rows)
}
