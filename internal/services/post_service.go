package services

import (
	"errors"
	"fmt"
	"strings"

	"parently/internal/models"
	"parently/internal/policy"
	"parently/internal/repositories"
)

// PostService handles business logic for posts, comments, and upvotes.
type PostService struct {
	postRepo   repositories.PostRepository
	cohortRepo repositories.CohortRepository
	publisher  EventPublisher
}

// NewPostService creates a new PostService.
func NewPostService(postRepo repositories.PostRepository, cohortRepo repositories.CohortRepository, publisher EventPublisher) *PostService {
	return &PostService{
		postRepo:   postRepo,
		cohortRepo: cohortRepo,
		publisher:  publisher,
	}
}

// CreatePost creates a post in a cohort. Content must be non-blank
// after trimming. Note: any authenticated user may post to any cohort
// they know the ID of — membership is deliberately not required here,
// matching the product's current behavior.
func (s *PostService) CreatePost(author *models.User, cohortID, content, photoURL string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if _, err := s.cohortRepo.GetByID(cohortID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	post := &models.Post{
		CohortID: cohortID,
		AuthorID: author.ID,
		Content:  content,
		PhotoURL: photoURL,
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	publishEvent(s.publisher, "post.created", map[string]interface{}{
		"postID":   post.ID,
		"cohortID": cohortID,
		"authorID": author.ID,
	})
	return post, nil
}

// ListPostsByCohort retrieves a cohort's posts newest-first with author
// profiles attached.
func (s *PostService) ListPostsByCohort(cohortID string) ([]models.Post, error) {
	if _, err := s.cohortRepo.GetByID(cohortID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.postRepo.ListByCohort(cohortID)
}

// UpdatePost edits a post's content and photo. Nonexistent posts and
// posts owned by someone else produce the same ErrNotFound, so the
// response never confirms a post's existence to a non-owner.
func (s *PostService) UpdatePost(actor *models.User, postID, content, photoURL string) (*models.Post, error) {
	post, err := s.getOwnedPost(actor, postID, policy.EditContent)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	post.Content = content
	post.PhotoURL = photoURL
	if err := s.postRepo.Update(post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

// DeletePost deletes a post under the same author-only rule as UpdatePost.
func (s *PostService) DeletePost(actor *models.User, postID string) error {
	if _, err := s.getOwnedPost(actor, postID, policy.DeleteContent); err != nil {
		return err
	}
	if err := s.postRepo.Delete(postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// CreateComment attaches a comment to a post.
func (s *PostService) CreateComment(author *models.User, postID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if _, err := s.postRepo.GetByID(postID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: author.ID,
		Content:  content,
	}
	if err := s.postRepo.CreateComment(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// ListCommentsByPost retrieves a post's comments.
func (s *PostService) ListCommentsByPost(postID string) ([]models.Comment, error) {
	if _, err := s.postRepo.GetByID(postID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.postRepo.ListCommentsByPost(postID)
}

// UpdateComment edits a comment under the same author-only rule as posts.
func (s *PostService) UpdateComment(actor *models.User, commentID, content string) (*models.Comment, error) {
	comment, err := s.getOwnedComment(actor, commentID, policy.EditContent)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	comment.Content = content
	if err := s.postRepo.UpdateComment(comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return comment, nil
}

// DeleteComment deletes a comment under the author-only rule.
func (s *PostService) DeleteComment(actor *models.User, commentID string) error {
	if _, err := s.getOwnedComment(actor, commentID, policy.DeleteContent); err != nil {
		return err
	}
	if err := s.postRepo.DeleteComment(commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// Upvote records the caller's vote on a post. The unique (post, user)
// index makes the at-most-one invariant hold even when duplicate
// requests race; the second one gets ErrAlreadyUpvoted.
func (s *PostService) Upvote(actor *models.User, postID string) error {
	if _, err := s.postRepo.GetByID(postID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	upvote := &models.Upvote{
		PostID: postID,
		UserID: actor.ID,
	}
	if err := s.postRepo.CreateUpvote(upvote); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return ErrAlreadyUpvoted
		}
		return fmt.Errorf("failed to upvote post: %w", err)
	}
	return nil
}

// RemoveUpvote withdraws the caller's vote.
func (s *PostService) RemoveUpvote(actor *models.User, postID string) error {
	if err := s.postRepo.DeleteUpvote(postID, actor.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotUpvoted
		}
		return fmt.Errorf("failed to remove upvote: %w", err)
	}
	return nil
}

// CountUpvotes counts the upvotes of a post.
func (s *PostService) CountUpvotes(postID string) (int64, error) {
	return s.postRepo.CountUpvotes(postID)
}

// HasUpvoted reports whether the user has upvoted the post.
func (s *PostService) HasUpvoted(postID, userID string) (bool, error) {
	return s.postRepo.HasUpvoted(postID, userID)
}

func (s *PostService) getOwnedPost(actor *models.User, postID string, action policy.Action) (*models.Post, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res := policy.Resource{CohortID: post.CohortID, OwnerID: post.AuthorID}
	if !policy.Can(policy.ActorFor(actor, false), action, res) {
		// Same outcome as a missing post: no existence leak.
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *PostService) getOwnedComment(actor *models.User, commentID string, action policy.Action) (*models.Comment, error) {
	comment, err := s.postRepo.GetCommentByID(commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res := policy.Resource{OwnerID: comment.AuthorID}
	if !policy.Can(policy.ActorFor(actor, false), action, res) {
		return nil, ErrNotFound
	}
	return comment, nil
}
