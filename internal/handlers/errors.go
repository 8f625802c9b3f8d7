package handlers

import (
	"errors"
	"log"

	"parently/internal/services"

	"github.com/gofiber/fiber/v2"
)

// errorResponse converts a service error into the standardized JSON
// error body. One mapping for the whole API: 401 for bad credentials,
// 403 for missing permission, 404 for missing-or-hidden resources, 409
// for every already-exists condition, 400 for validation failures.
func errorResponse(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		// Internal details stay in the log, not in the response.
		log.Printf("Internal error handling %s %s: %v", c.Method(), c.Path(), err)
		message = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrDuplicateUsername),
		errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrDuplicateMembership),
		errors.Is(err, services.ErrLastModerator),
		errors.Is(err, services.ErrAlreadyUpvoted),
		errors.Is(err, services.ErrNotUpvoted):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidOrExpiredToken):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// validationErrorResponse renders validator failures as a per-field
// error map.
func validationErrorResponse(c *fiber.Ctx, errs map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errs,
	})
}
