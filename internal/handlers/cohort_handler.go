package handlers

import (
	"time"

	"parently/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CohortHandler handles HTTP requests for cohorts, memberships, and
// baby profiles.
type CohortHandler struct {
	cohortService *services.CohortService
	validate      *validator.Validate
}

// NewCohortHandler creates a new CohortHandler.
func NewCohortHandler(cohortService *services.CohortService) *CohortHandler {
	return &CohortHandler{
		cohortService: cohortService,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers the cohort routes. All of them sit behind
// the session guard.
func (h *CohortHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/cohorts", h.HandleCreateCohort)
	router.Get("/cohorts", h.HandleListCohorts)
	router.Get("/cohorts/:id", h.HandleGetCohort)
	router.Get("/user/cohorts", h.HandleUserCohorts)

	router.Get("/cohorts/:id/members", h.HandleListMembers)
	router.Get("/cohorts/:id/moderators", h.HandleListModerators)
	router.Get("/cohorts/:id/is-moderator", h.HandleIsModerator)

	router.Post("/cohort-membership", h.HandleAddMember)
	router.Put("/cohort-membership/:id", h.HandleUpdateMembershipRole)
	router.Delete("/cohort-membership/:id", h.HandleRemoveMember)

	router.Post("/babies", h.HandleAddBaby)
	router.Get("/user/babies", h.HandleListBabies)
}

// CreateCohortRequest represents the request body for cohort creation.
type CreateCohortRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

// HandleCreateCohort creates a cohort with the caller as its first
// moderator.
func (h *CohortHandler) HandleCreateCohort(c *fiber.Ctx) error {
	var req CreateCohortRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	cohort, err := h.cohortService.CreateCohort(req.Name, req.Description, currentUser(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"cohort": cohort})
}

// HandleListCohorts returns all cohorts.
func (h *CohortHandler) HandleListCohorts(c *fiber.Ctx) error {
	cohorts, err := h.cohortService.GetAllCohorts()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"cohorts": cohorts})
}

// HandleGetCohort returns a single cohort.
func (h *CohortHandler) HandleGetCohort(c *fiber.Ctx) error {
	cohort, err := h.cohortService.GetCohortByID(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"cohort": cohort})
}

// HandleUserCohorts returns the cohorts the caller belongs to.
func (h *CohortHandler) HandleUserCohorts(c *fiber.Ctx) error {
	cohorts, err := h.cohortService.GetUserCohorts(currentUser(c).ID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"cohorts": cohorts})
}

// HandleListMembers returns a cohort's memberships with member profiles.
func (h *CohortHandler) HandleListMembers(c *fiber.Ctx) error {
	members, err := h.cohortService.ListMembers(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"members": members})
}

// HandleListModerators returns a cohort's moderator memberships.
func (h *CohortHandler) HandleListModerators(c *fiber.Ctx) error {
	moderators, err := h.cohortService.ListModerators(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"moderators": moderators})
}

// HandleIsModerator reports whether the caller moderates the cohort.
func (h *CohortHandler) HandleIsModerator(c *fiber.Ctx) error {
	isModerator, err := h.cohortService.IsModerator(currentUser(c).ID, c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"is_moderator": isModerator})
}

// AddMemberRequest represents the request body for adding a member.
// The target user is given by ID or, when absent, looked up by email.
type AddMemberRequest struct {
	CohortID string `json:"cohort_id" validate:"required"`
	UserID   string `json:"user_id" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=member moderator"`
}

// HandleAddMember adds a user to a cohort. Moderator or admin only.
func (h *CohortHandler) HandleAddMember(c *fiber.Ctx) error {
	var req AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	membership, err := h.cohortService.AddMember(currentUser(c), req.CohortID, req.UserID, req.Email, req.Role)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"membership": membership})
}

// UpdateMembershipRequest represents the request body for a role change.
type UpdateMembershipRequest struct {
	Role string `json:"role" validate:"required"`
}

// HandleUpdateMembershipRole changes a membership's role. Moderator or
// admin only, scoped to the membership's cohort.
func (h *CohortHandler) HandleUpdateMembershipRole(c *fiber.Ctx) error {
	var req UpdateMembershipRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	membership, err := h.cohortService.UpdateMembershipRole(currentUser(c), c.Params("id"), req.Role)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"membership": membership})
}

// HandleRemoveMember deletes a membership. Moderator or admin only.
func (h *CohortHandler) HandleRemoveMember(c *fiber.Ctx) error {
	if err := h.cohortService.RemoveMember(currentUser(c), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// AddBabyRequest represents the request body for adding a baby profile.
type AddBabyRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	BirthDate string `json:"birth_date" validate:"required"`
	PhotoURL  string `json:"photo_url" validate:"omitempty,url"`
}

// HandleAddBaby stores a baby profile and joins the caller to the
// auto-created monthly cohort for the birth date.
func (h *CohortHandler) HandleAddBaby(c *fiber.Ctx) error {
	var req AddBabyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return validationErrorResponse(c, map[string]string{
			"BirthDate": "must be a date in YYYY-MM-DD format",
		})
	}

	baby, cohort, err := h.cohortService.AddBaby(currentUser(c), req.Name, birthDate, req.PhotoURL)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"baby":   baby,
		"cohort": cohort,
	})
}

// HandleListBabies returns the caller's baby profiles.
func (h *CohortHandler) HandleListBabies(c *fiber.Ctx) error {
	babies, err := h.cohortService.ListBabies(currentUser(c).ID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"babies": babies})
}
