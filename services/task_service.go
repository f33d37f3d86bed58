// services/task_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"task-bounty-system/models"
	"task-bounty-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxScreenshotsPerSubmission = 5

type TaskService struct {
	DB       *gorm.DB
	Projects *ProjectService
}

func NewTaskService(db *gorm.DB, projects *ProjectService) *TaskService {
	return &TaskService{DB: db, Projects: projects}
}

type CreateTaskRequest struct {
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	Type                string     `json:"type,omitempty"`
	Deadline            *time.Time `json:"deadline,omitempty"`
	RequiresScreenshots bool       `json:"requires_screenshots"`
}

type UpdateTaskRequest struct {
	Title               *string    `json:"title,omitempty"`
	Description         *string    `json:"description,omitempty"`
	Type                *string    `json:"type,omitempty"`
	Deadline            *time.Time `json:"deadline,omitempty"`
	ClearDeadline       bool       `json:"clear_deadline,omitempty"`
	RequiresScreenshots *bool      `json:"requires_screenshots,omitempty"`
}

// CreateTask adds a task to a project (Admin only).
func (s *TaskService) CreateTask(c *fiber.Ctx) error {
	projectID := c.Params("projectId")
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	task := &models.Task{
		ID:                  uuid.NewString(),
		ProjectID:           projectID,
		Title:               req.Title,
		Description:         req.Description,
		Type:                req.Type,
		Deadline:            req.Deadline,
		RequiresScreenshots: req.RequiresScreenshots,
		IsActive:            true,
	}
	if err := s.DB.Create(task).Error; err != nil {
		log.Printf("DB error creating task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create task"})
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetTasks lists all tasks of a project (Admin only).
func (s *TaskService) GetTasks(c *fiber.Ctx) error {
	var tasks []models.Task
	if err := s.DB.Where("project_id = ?", c.Params("projectId")).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch tasks"})
	}
	return c.JSON(tasks)
}

// UpdateTask applies a partial update (Admin only). The deadline can be
// cleared explicitly via clear_deadline.
func (s *TaskService) UpdateTask(c *fiber.Ctx) error {
	id := c.Params("taskId")
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
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
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.ClearDeadline {
		updates["deadline"] = nil
	} else if req.Deadline != nil {
		updates["deadline"] = *req.Deadline
	}
	if req.RequiresScreenshots != nil {
		updates["requires_screenshots"] = *req.RequiresScreenshots
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no fields to update"})
	}

	result := s.DB.Model(&models.Task{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		log.Printf("DB error updating task %s: %v", id, result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
	}

	var updated models.Task
	if err := s.DB.First(&updated, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch updated task"})
	}
	return c.JSON(updated)
}

// ToggleTaskActive flips a task's visibility to users (Admin only).
func (s *TaskService) ToggleTaskActive(c *fiber.Ctx) error {
	id := c.Params("taskId")

	var task models.Task
	if err := s.DB.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Model(&task).Update("is_active", !task.IsActive).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to toggle task"})
	}
	task.IsActive = !task.IsActive
	return c.JSON(task)
}

// GetProjectTasks lists active tasks of a project the authenticated user is
// assigned to, with the user's own submission status folded in.
func (s *TaskService) GetProjectTasks(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	projectID := c.Params("id")

	assigned, err := s.Projects.IsAssigned(projectID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if !assigned {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found or not assigned"})
	}

	var tasks []models.Task
	if err := s.DB.Where("project_id = ? AND is_active = ?", projectID, true).
		Find(&tasks).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch tasks"})
	}

	var submissions []models.TaskSubmission
	if err := s.DB.Preload("Screenshots").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Find(&submissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch submissions"})
	}
	byTask := make(map[string]*models.TaskSubmission, len(submissions))
	for i := range submissions {
		byTask[submissions[i].TaskID] = &submissions[i]
	}

	for i := range tasks {
		if sub, ok := byTask[tasks[i].ID]; ok {
			tasks[i].SubmissionStatus = sub.Status
			tasks[i].Submission = sub
		} else {
			tasks[i].SubmissionStatus = "none"
		}
	}

	return c.JSON(tasks)
}

// SubmitTask records the authenticated user's proof for a task. Multipart
// form: submission_link plus up to 5 screenshot files. The composite unique
// index on (task_id, user_id) backstops the duplicate pre-check.
func (s *TaskService) SubmitTask(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	taskID := c.Params("taskId")

	var task models.Task
	if err := s.DB.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if !task.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "task is not active"})
	}
	if task.Deadline != nil && time.Now().After(*task.Deadline) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "task deadline has passed"})
	}

	assigned, err := s.Projects.IsAssigned(task.ProjectID, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if !assigned {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found or not assigned"})
	}

	submissionLink := c.FormValue("submission_link")
	if submissionLink == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "submission_link is required"})
	}

	var existing int64
	if err := s.DB.Model(&models.TaskSubmission{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&existing).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "task already submitted"})
	}

	form, err := c.MultipartForm()
	if err != nil && task.RequiresScreenshots {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "multipart form with screenshots required"})
	}

	var screenshotURLs []string
	if form != nil {
		files := form.File["screenshots"]
		if len(files) > maxScreenshotsPerSubmission {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("at most %d screenshots allowed", maxScreenshotsPerSubmission),
			})
		}
		for _, fileHeader := range files {
			key := fmt.Sprintf("screenshots/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
			url, err := utils.StoreScreenshot(fileHeader, key)
			if err != nil {
				log.Printf("failed to store screenshot %q: %v", fileHeader.Filename, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store screenshot"})
			}
			screenshotURLs = append(screenshotURLs, url)
		}
	}
	if task.RequiresScreenshots && len(screenshotURLs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "this task requires at least one screenshot"})
	}

	submission := &models.TaskSubmission{
		ID:             uuid.NewString(),
		TaskID:         taskID,
		ProjectID:      task.ProjectID,
		UserID:         userID,
		SubmissionLink: submissionLink,
		Status:         models.SubmissionStatusSubmitted,
	}
	for i, url := range screenshotURLs {
		submission.Screenshots = append(submission.Screenshots, models.TaskScreenshot{
			ID:           uuid.NewString(),
			SubmissionID: submission.ID,
			URL:          url,
			SortOrder:    i,
		})
	}

	if err := s.DB.Create(submission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "task already submitted"})
		}
		log.Printf("DB error creating task submission (task=%s user=%s): %v", taskID, userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to submit task"})
	}

	return c.Status(fiber.StatusCreated).JSON(submission)
}

// GetUserSubmissions lists the authenticated user's task submissions.
func (s *TaskService) GetUserSubmissions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var submissions []models.TaskSubmission
	if err := s.DB.Preload("Task").Preload("Project").Preload("Screenshots").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch submissions"})
	}
	return c.JSON(submissions)
}

// GetSubmissions lists all task submissions with optional filters (Admin only).
func (s *TaskService) GetSubmissions(c *fiber.Ctx) error {
	query := s.DB.Preload("Task").Preload("Project").Preload("Screenshots").Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var submissions []models.TaskSubmission
	if err := query.Find(&submissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch submissions"})
	}
	return c.JSON(submissions)
}

type ReviewTaskSubmissionRequest struct {
	Status       string `json:"status"`
	AdminComment string `json:"admin_comment,omitempty"`
}

// UpdateSubmissionStatus approves or rejects a task submission (Admin only).
func (s *TaskService) UpdateSubmissionStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var req ReviewTaskSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if !models.ValidSubmissionStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be submitted, approved or rejected"})
	}

	var submission models.TaskSubmission
	if err := s.DB.First(&submission, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "submission not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.AdminComment != "" {
		updates["admin_comment"] = req.AdminComment
	}
	if err := s.DB.Model(&submission).Where("id = ?", id).Updates(updates).Error; err != nil {
		log.Printf("DB error reviewing task submission %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update submission"})
	}

	s.DB.First(&submission, "id = ?", id)
	return c.JSON(submission)
}
