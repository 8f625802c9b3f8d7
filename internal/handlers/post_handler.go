package handlers

import (
	"parently/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PostHandler handles HTTP requests for posts, comments, and upvotes.
type PostHandler struct {
	postService *services.PostService
	validate    *validator.Validate
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the content routes. All of them sit behind
// the session guard.
func (h *PostHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/posts", h.HandleCreatePost)
	router.Get("/cohorts/:id/posts", h.HandleListPosts)
	router.Put("/posts/:id", h.HandleUpdatePost)
	router.Delete("/posts/:id", h.HandleDeletePost)

	router.Post("/comments", h.HandleCreateComment)
	router.Get("/posts/:id/comments", h.HandleListComments)
	router.Put("/comments/:id", h.HandleUpdateComment)
	router.Delete("/comments/:id", h.HandleDeleteComment)

	router.Post("/upvotes", h.HandleUpvote)
	router.Delete("/posts/:id/upvotes", h.HandleRemoveUpvote)
	router.Get("/posts/:id/upvotes/count", h.HandleUpvoteCount)
	router.Get("/posts/:id/upvotes/user", h.HandleUserUpvote)
}

// CreatePostRequest represents the request body for creating a post.
type CreatePostRequest struct {
	CohortID string `json:"cohort_id" validate:"required"`
	Content  string `json:"content" validate:"required"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
}

// HandleCreatePost creates a post in a cohort.
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	post, err := h.postService.CreatePost(currentUser(c), req.CohortID, req.Content, req.PhotoURL)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

// HandleListPosts returns a cohort's posts newest-first.
func (h *PostHandler) HandleListPosts(c *fiber.Ctx) error {
	posts, err := h.postService.ListPostsByCohort(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// UpdatePostRequest represents the request body for editing a post.
type UpdatePostRequest struct {
	Content  string `json:"content" validate:"required"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
}

// HandleUpdatePost edits a post. Author only; a non-author gets the
// same 404 as a missing post.
func (h *PostHandler) HandleUpdatePost(c *fiber.Ctx) error {
	var req UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	post, err := h.postService.UpdatePost(currentUser(c), c.Params("id"), req.Content, req.PhotoURL)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// HandleDeletePost deletes a post under the author-only rule.
func (h *PostHandler) HandleDeletePost(c *fiber.Ctx) error {
	if err := h.postService.DeletePost(currentUser(c), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// CreateCommentRequest represents the request body for creating a comment.
type CreateCommentRequest struct {
	PostID  string `json:"post_id" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// HandleCreateComment attaches a comment to a post.
func (h *PostHandler) HandleCreateComment(c *fiber.Ctx) error {
	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	comment, err := h.postService.CreateComment(currentUser(c), req.PostID, req.Content)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}

// HandleListComments returns a post's comments.
func (h *PostHandler) HandleListComments(c *fiber.Ctx) error {
	comments, err := h.postService.ListCommentsByPost(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

// UpdateCommentRequest represents the request body for editing a comment.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// HandleUpdateComment edits a comment under the author-only rule.
func (h *PostHandler) HandleUpdateComment(c *fiber.Ctx) error {
	var req UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	comment, err := h.postService.UpdateComment(currentUser(c), c.Params("id"), req.Content)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"comment": comment})
}

// HandleDeleteComment deletes a comment under the author-only rule.
func (h *PostHandler) HandleDeleteComment(c *fiber.Ctx) error {
	if err := h.postService.DeleteComment(currentUser(c), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// UpvoteRequest represents the request body for upvoting a post.
type UpvoteRequest struct {
	PostID string `json:"post_id" validate:"required"`
}

// HandleUpvote records the caller's vote on a post.
func (h *PostHandler) HandleUpvote(c *fiber.Ctx) error {
	var req UpvoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, validationMessages(err))
	}

	if err := h.postService.Upvote(currentUser(c), req.PostID); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// HandleRemoveUpvote withdraws the caller's vote from a post.
func (h *PostHandler) HandleRemoveUpvote(c *fiber.Ctx) error {
	if err := h.postService.RemoveUpvote(currentUser(c), c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleUpvoteCount returns a post's upvote count.
func (h *PostHandler) HandleUpvoteCount(c *fiber.Ctx) error {
	count, err := h.postService.CountUpvotes(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// HandleUserUpvote reports whether the caller has upvoted the post.
func (h *PostHandler) HandleUserUpvote(c *fiber.Ctx) error {
	upvoted, err := h.postService.HasUpvoted(c.Params("id"), currentUser(c).ID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"upvoted": upvoted})
}
