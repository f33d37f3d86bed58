// services/project_service.go
package services

import (
	"errors"
	"fmt"
	"log"

	"task-bounty-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type ProjectService struct {
	DB *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{DB: db}
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// uniqueSlug derives a URL slug from the project name, suffixing with a
// short id fragment when the plain slug is already taken.
func (s *ProjectService) uniqueSlug(name string) string {
	base := slug.Make(name)
	var count int64
	s.DB.Model(&models.Project{}).Where("slug = ?", base).Count(&count)
	if count == 0 {
		return base
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}

// CreateProject creates a project (Admin only).
func (s *ProjectService) CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        s.uniqueSlug(req.Name),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Status:      models.ProjectStatusActive,
		CreatedBy:   c.Locals("user_id").(string),
	}
	if err := s.DB.Create(project).Error; err != nil {
		log.Printf("DB error creating project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create project"})
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// GetProjects lists all projects (Admin only).
func (s *ProjectService) GetProjects(c *fiber.Ctx) error {
	var projects []models.Project
	if err := s.DB.Preload("Assignments").Order("created_at DESC").Find(&projects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch projects"})
	}
	return c.JSON(projects)
}

// UpdateProject applies a partial update (Admin only).
func (s *ProjectService) UpdateProject(c *fiber.Ctx) error {
	id := c.Params("id")
	var req UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		if *req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name cannot be empty"})
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Status != nil {
		if *req.Status != models.ProjectStatusActive && *req.Status != models.ProjectStatusArchived {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be active or archived"})
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no fields to update"})
	}

	result := s.DB.Model(&models.Project{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		log.Printf("DB error updating project %s: %v", id, result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}

	var updated models.Project
	if err := s.DB.First(&updated, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch updated project"})
	}
	return c.JSON(updated)
}

// DeleteProject soft-deletes a project (Admin only).
func (s *ProjectService) DeleteProject(c *fiber.Ctx) error {
	id := c.Params("id")
	result := s.DB.Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	return c.JSON(fiber.Map{"message": "project removed"})
}

type AssignUsersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// AssignUsers replaces the set of users assigned to a project (Admin only).
func (s *ProjectService) AssignUsers(c *fiber.Ctx) error {
	id := c.Params("id")
	var req AssignUsersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	var project models.Project
	if err := s.DB.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectAssignment{}).Error; err != nil {
			return err
		}
		for _, userID := range req.UserIDs {
			assignment := models.ProjectAssignment{
				ID:             uuid.NewString(),
				ProjectID:      id,
				ExternalUserID: userID,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("DB error assigning users to project %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to assign users"})
	}

	if err := s.DB.Preload("Assignments").First(&project, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch updated project"})
	}
	return c.JSON(project)
}

// GetAssignedProjects lists the projects assigned to the authenticated user.
func (s *ProjectService) GetAssignedProjects(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var projects []models.Project
	if err := s.DB.
		Joins("JOIN project_assignments ON project_assignments.project_id = projects.id").
		Where("project_assignments.external_user_id = ?", userID).
		Order("projects.created_at DESC").
		Find(&projects).Error; err != nil {
		log.Printf("DB error fetching assigned projects for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch projects"})
	}
	return c.JSON(projects)
}

// IsAssigned reports whether the user is assigned to the project.
func (s *ProjectService) IsAssigned(projectID, userID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.ProjectAssignment{}).
		Where("project_id = ? AND external_user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}
