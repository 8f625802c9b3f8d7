package repositories

import (
	"sync"
	"time"

	"parently/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users  map[string]models.User
	tokens map[string]models.PasswordResetToken // keyed by token value
	babies map[string]models.Baby
	mu     sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[string]models.User),
		tokens: make(map[string]models.PasswordResetToken),
		babies: make(map[string]models.Baby),
	}
}

// Create adds a new user, enforcing the username/email unique indexes.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

// GetByUsername returns a user by username.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// GetByID returns a user by ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

// CreateResetToken stores a reset token.
func (r *MockUserRepository) CreateResetToken(token *models.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	r.tokens[token.Token] = *token
	return nil
}

// RedeemResetToken consumes the token and rotates the user's password
// under one lock, matching the transactional GORM behavior.
func (r *MockUserRepository) RedeemResetToken(token string, hashedPassword string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset, ok := r.tokens[token]
	if !ok || reset.Used || !reset.ExpiresAt.After(now) {
		return ErrNotFound
	}
	user, ok := r.users[reset.UserID]
	if !ok {
		return ErrNotFound
	}

	reset.Used = true
	r.tokens[token] = reset
	user.Password = hashedPassword
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

// CreateBaby stores a baby profile.
func (r *MockUserRepository) CreateBaby(baby *models.Baby) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if baby.ID == "" {
		baby.ID = uuid.New().String()
	}
	baby.CreatedAt = time.Now()
	baby.UpdatedAt = time.Now()
	r.babies[baby.ID] = *baby
	return nil
}

// ListBabiesByUser returns the babies belonging to a user.
func (r *MockUserRepository) ListBabiesByUser(userID string) ([]models.Baby, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	babies := make([]models.Baby, 0)
	for _, b := range r.babies {
		if b.UserID == userID {
			babies = append(babies, b)
		}
	}
	return babies, nil
}
