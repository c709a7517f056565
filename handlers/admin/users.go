package admin

import (
	"github.com/gofiber/fiber/v2"

	"sprintprep/database"
	"sprintprep/models"
	"sprintprep/services"
)

// GetUsers returns all users with pagination
func GetUsers(c *fiber.Ctx) error {
	db := database.GetDB()

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	search := c.Query("search", "")

	offset := (page - 1) * limit

	var users []models.User
	var total int64

	query := db.Model(&models.User{})
	if search != "" {
		query = query.Where("username LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	query.Count(&total)

	if err := query.Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch users"})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetUser returns a single user with their recent sprint sessions.
func GetUser(c *fiber.Ctx) error {
	db := database.GetDB()

	var user models.User
	if err := db.First(&user, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	var sessions []models.SprintSession
	db.Where("user_id = ?", user.ID).Order("started_at DESC").Limit(10).Find(&sessions)

	return c.JSON(fiber.Map{"user": user, "recent_sessions": sessions})
}

// UpdateUser updates a user's account flags.
func UpdateUser(c *fiber.Ctx) error {
	db := database.GetDB()

	var user models.User
	if err := db.First(&user, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	var updateData struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		IsAdmin     bool   `json:"is_admin"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if updateData.Username != "" {
		user.Username = updateData.Username
	}
	if updateData.Email != "" {
		email := updateData.Email
		user.Email = &email
	}
	if updateData.DisplayName != "" {
		user.DisplayName = updateData.DisplayName
	}
	user.IsAdmin = updateData.IsAdmin

	if err := db.Save(&user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update user"})
	}

	return c.JSON(user)
}

// DeleteUser removes a user and their sprint data.
func DeleteUser(c *fiber.Ctx) error {
	db := database.GetDB()

	var user models.User
	if err := db.First(&user, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	db.Where("user_id = ?", user.ID).Delete(&models.Attempt{})
	db.Where("user_id = ?", user.ID).Delete(&models.SprintSession{})
	if err := db.Delete(&user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete user"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// TriggerCleanup runs the stale-session sweep immediately.
func TriggerCleanup(c *fiber.Ctx) error {
	svc := services.GetCleanupService()
	if svc == nil {
		return c.Status(500).JSON(fiber.Map{"error": "Service unavailable"})
	}
	svc.ExpireStaleSessions()
	return c.JSON(fiber.Map{"success": true, "message": "Cleanup triggered"})
}
