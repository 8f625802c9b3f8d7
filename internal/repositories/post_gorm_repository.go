package repositories

import (
	"errors"
	"fmt"

	"parently/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{
		db: db,
	}
}

// Create creates a new post in the database.
func (r *GORMPostRepository) Create(post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if err := r.db.Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post by its ID.
func (r *GORMPostRepository) GetByID(id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.Preload("Author").First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post by ID %s: %w", id, err)
	}
	return &post, nil
}

// ListByCohort retrieves a cohort's posts newest-first with authors
// preloaded.
func (r *GORMPostRepository) ListByCohort(cohortID string) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Preload("Author").
		Where("cohort_id = ?", cohortID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list posts for cohort %s: %w", cohortID, err)
	}
	return posts, nil
}

// Update updates an existing post.
func (r *GORMPostRepository) Update(post *models.Post) error {
	res := r.db.Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"content":   post.Content,
			"photo_url": post.PhotoURL,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a post by its ID.
func (r *GORMPostRepository) Delete(id string) error {
	res := r.db.Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateComment creates a new comment.
func (r *GORMPostRepository) CreateComment(comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if err := r.db.Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetCommentByID retrieves a single comment by its ID.
func (r *GORMPostRepository) GetCommentByID(id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Preload("Author").First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment by ID %s: %w", id, err)
	}
	return &comment, nil
}

// ListCommentsByPost retrieves a post's comments oldest-first with
// authors preloaded.
func (r *GORMPostRepository) ListCommentsByPost(postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for post %s: %w", postID, err)
	}
	return comments, nil
}

// UpdateComment updates an existing comment.
func (r *GORMPostRepository) UpdateComment(comment *models.Comment) error {
	res := r.db.Model(&models.Comment{}).
		Where("id = ?", comment.ID).
		Update("content", comment.Content)
	if res.Error != nil {
		return fmt.Errorf("failed to update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComment deletes a comment by its ID.
func (r *GORMPostRepository) DeleteComment(id string) error {
	res := r.db.Delete(&models.Comment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUpvote inserts an upvote row; the unique (post, user) index
// turns a duplicate vote into ErrDuplicate, even when two requests for
// the same pair race.
func (r *GORMPostRepository) CreateUpvote(upvote *models.Upvote) error {
	if upvote.ID == "" {
		upvote.ID = uuid.New().String()
	}
	if err := r.db.Create(upvote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create upvote: %w", err)
	}
	return nil
}

// DeleteUpvote removes the upvote row for the pair, if any.
func (r *GORMPostRepository) DeleteUpvote(postID, userID string) error {
	res := r.db.Delete(&models.Upvote{}, "post_id = ? AND user_id = ?", postID, userID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete upvote: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUpvotes counts the upvotes of a post.
func (r *GORMPostRepository) CountUpvotes(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Upvote{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count upvotes for post %s: %w", postID, err)
	}
	return count, nil
}

// HasUpvoted reports whether the user has upvoted the post.
func (r *GORMPostRepository) HasUpvoted(postID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Upvote{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check upvote for post %s: %w", postID, err)
	}
	return count > 0, nil
}
