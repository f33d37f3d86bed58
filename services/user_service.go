// services/user_service.go
package services

import (
	"errors"
	"log"

	"task-bounty-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// GetUsers lists platform users, optionally filtered by status (Admin only).
func (s *UserService) GetUsers(c *fiber.Ctx) error {
	query := s.DB.Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var users []models.PlatformUser
	if err := query.Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch users"})
	}
	return c.JSON(users)
}

type UpdateUserStatusRequest struct {
	Status string `json:"status"`
}

// UpdateUserStatus approves or rejects a platform user (Admin only).
func (s *UserService) UpdateUserStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var req UpdateUserStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if !models.ValidUserStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be pending, approved or rejected"})
	}

	var user models.PlatformUser
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Model(&user).Update("status", req.Status).Error; err != nil {
		log.Printf("DB error updating user %s status: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update user status"})
	}
	user.Status = req.Status
	return c.JSON(user)
}

// GetProfile returns the authenticated user's local snapshot.
func (s *UserService) GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var user models.PlatformUser
	if err := s.DB.First(&user, "external_user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(user)
}

type UpdateProfileRequest struct {
	WalletAddress *string `json:"wallet_address,omitempty"`
}

// UpdateProfile lets a user change their wallet address. Everything else on
// the snapshot is owned by the identity service and only moves via sync.
func (s *UserService) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.WalletAddress == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no fields to update"})
	}

	var user models.PlatformUser
	if err := s.DB.First(&user, "external_user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Model(&user).Update("wallet_address", *req.WalletAddress).Error; err != nil {
		log.Printf("DB error updating wallet address for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update profile"})
	}

	return c.JSON(fiber.Map{
		"message":        "profile updated",
		"wallet_address": *req.WalletAddress,
	})
}
