package repositories

import (
	"sort"
	"sync"
	"time"

	"parently/internal/models"

	"github.com/google/uuid"
)

// MockPostRepository is an in-memory implementation of PostRepository.
type MockPostRepository struct {
	posts    map[string]models.Post
	comments map[string]models.Comment
	upvotes  map[string]models.Upvote
	users    *MockUserRepository // for preloading authors, may be nil
	mu       sync.RWMutex
}

// NewMockPostRepository creates a new instance of MockPostRepository.
func NewMockPostRepository(users *MockUserRepository) *MockPostRepository {
	return &MockPostRepository{
		posts:    make(map[string]models.Post),
		comments: make(map[string]models.Comment),
		upvotes:  make(map[string]models.Upvote),
		users:    users,
	}
}

// Create adds a new post.
func (r *MockPostRepository) Create(post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()
	r.posts[post.ID] = *post
	return nil
}

// GetByID returns a post by its ID.
func (r *MockPostRepository) GetByID(id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	post.Author = r.authorFor(post.AuthorID)
	return &post, nil
}

// ListByCohort returns a cohort's posts newest-first.
func (r *MockPostRepository) ListByCohort(cohortID string) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]models.Post, 0)
	for _, p := range r.posts {
		if p.CohortID == cohortID {
			p.Author = r.authorFor(p.AuthorID)
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// Update modifies an existing post's content and photo.
func (r *MockPostRepository) Update(post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Content = post.Content
	existing.PhotoURL = post.PhotoURL
	existing.UpdatedAt = time.Now()
	r.posts[post.ID] = existing
	return nil
}

// Delete removes a post by its ID.
func (r *MockPostRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

// CreateComment adds a new comment.
func (r *MockPostRepository) CreateComment(comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = time.Now()
	r.comments[comment.ID] = *comment
	return nil
}

// GetCommentByID returns a comment by its ID.
func (r *MockPostRepository) GetCommentByID(id string) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comment, ok := r.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	comment.Author = r.authorFor(comment.AuthorID)
	return &comment, nil
}

// ListCommentsByPost returns a post's comments oldest-first.
func (r *MockPostRepository) ListCommentsByPost(postID string) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comments := make([]models.Comment, 0)
	for _, c := range r.comments {
		if c.PostID == postID {
			c.Author = r.authorFor(c.AuthorID)
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// UpdateComment modifies an existing comment's content.
func (r *MockPostRepository) UpdateComment(comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.comments[comment.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Content = comment.Content
	existing.UpdatedAt = time.Now()
	r.comments[comment.ID] = existing
	return nil
}

// DeleteComment removes a comment by its ID.
func (r *MockPostRepository) DeleteComment(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

// CreateUpvote adds an upvote, rejecting duplicate (post, user) pairs.
func (r *MockPostRepository) CreateUpvote(upvote *models.Upvote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.upvotes {
		if u.PostID == upvote.PostID && u.UserID == upvote.UserID {
			return ErrDuplicate
		}
	}
	if upvote.ID == "" {
		upvote.ID = uuid.New().String()
	}
	upvote.CreatedAt = time.Now()
	r.upvotes[upvote.ID] = *upvote
	return nil
}

// DeleteUpvote removes the upvote for the pair, if any.
func (r *MockPostRepository) DeleteUpvote(postID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.upvotes {
		if u.PostID == postID && u.UserID == userID {
			delete(r.upvotes, id)
			return nil
		}
	}
	return ErrNotFound
}

// CountUpvotes counts the upvotes of a post.
func (r *MockPostRepository) CountUpvotes(postID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, u := range r.upvotes {
		if u.PostID == postID {
			count++
		}
	}
	return count, nil
}

// HasUpvoted reports whether the user has upvoted the post.
func (r *MockPostRepository) HasUpvoted(postID, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.upvotes {
		if u.PostID == postID && u.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockPostRepository) authorFor(authorID string) *models.User {
	if r.users == nil {
		return nil
	}
	user, err := r.users.GetByID(authorID)
	if err != nil {
		return nil
	}
	return user
}
