package handlers

import (
	"log"
	"time"

	"parently/internal/middleware"
	"parently/internal/models"
	"parently/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for identity and credentials.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the public authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
	router.Post("/forgot-password", h.HandleForgotPassword)
	router.Post("/reset-password", h.HandleResetPassword)
}

// RegisterProtectedRoutes registers the session-guarded identity routes.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/logout", h.HandleLogout)
	router.Get("/user", h.HandleCurrentUser)
}

// HandleRegister handles new user registration and establishes a
// session for the created account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	user.Role = models.RoleUser // Role is never client-assigned

	if err := h.validate.Struct(user); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	if err := h.authService.RegisterUser(&user); err != nil {
		return errorResponse(c, err)
	}

	// new_user steers the client toward onboarding (adding a baby,
	// joining a cohort). It lives only in this session.
	token, err := h.authService.IssueToken(&user, true)
	if err != nil {
		return errorResponse(c, err)
	}
	h.setSessionCookie(c, token)

	user.Password = "" // For security, do not return the password hash
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "User registered successfully",
		"user":     user,
		"new_user": true,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and establishes a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	token, user, err := h.authService.LoginUser(req.Username, req.Password)
	if err != nil {
		log.Printf("Failed login attempt for user %s", req.Username)
		return errorResponse(c, err)
	}
	h.setSessionCookie(c, token)

	user.Password = ""
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
	})
}

// HandleLogout clears the session cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{"success": true})
}

// HandleCurrentUser returns the authenticated user's profile.
func (h *AuthHandler) HandleCurrentUser(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(currentUser(c).ID)
	if err != nil {
		return errorResponse(c, err)
	}
	user.Password = ""
	return c.JSON(fiber.Map{"user": user})
}

// ForgotPasswordRequest represents the request body for a reset request.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleForgotPassword issues a reset token when the account exists.
// The response is identical either way so the endpoint cannot be used
// to enumerate accounts.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	if err := h.authService.RequestPasswordReset(req.Email); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "If that email belongs to an account, a reset link is on its way",
	})
}

// ResetPasswordRequest represents the request body for a reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// HandleResetPassword redeems a reset token and rotates the password.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	if err := h.authService.ResetPassword(req.Token, req.NewPassword); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
