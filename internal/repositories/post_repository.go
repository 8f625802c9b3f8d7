package repositories

import (
	"parently/internal/models"
)

// PostRepository defines the interface for post, comment, and upvote
// data access.
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id string) (*models.Post, error)
	// ListByCohort returns posts newest-first with authors preloaded.
	ListByCohort(cohortID string) ([]models.Post, error)
	Update(post *models.Post) error
	Delete(id string) error

	CreateComment(comment *models.Comment) error
	GetCommentByID(id string) (*models.Comment, error)
	ListCommentsByPost(postID string) ([]models.Comment, error)
	UpdateComment(comment *models.Comment) error
	DeleteComment(id string) error

	// CreateUpvote returns ErrDuplicate when the (post, user) pair
	// already has a vote.
	CreateUpvote(upvote *models.Upvote) error
	// DeleteUpvote returns ErrNotFound when no vote exists for the pair.
	DeleteUpvote(postID, userID string) error
	CountUpvotes(postID string) (int64, error)
	HasUpvoted(postID, userID string) (bool, error)
}
