package handlers

import (
	"fmt"

	"parently/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// currentUser rebuilds the acting user from the session claims stored
// by the auth middleware. Only identity and global role travel in the
// session; cohort-scoped standing is always resolved against storage.
func currentUser(c *fiber.Ctx) *models.User {
	user := &models.User{}
	if id, ok := c.Locals("user_id").(string); ok {
		user.ID = id
	}
	if username, ok := c.Locals("username").(string); ok {
		user.Username = username
	}
	if role, ok := c.Locals("role").(string); ok {
		user.Role = role
	}
	return user
}

// validationMessages flattens validator errors into a field → message map.
func validationMessages(err error) map[string]string {
	errorMessages := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return errorMessages
}
