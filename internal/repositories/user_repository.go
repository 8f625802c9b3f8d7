package repositories

import (
	"time"

	"parently/internal/models"
)

// UserRepository defines the interface for user, credential, and baby
// profile data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)

	CreateResetToken(token *models.PasswordResetToken) error
	// RedeemResetToken atomically marks the token used and rotates the
	// owning user's password hash. Returns ErrNotFound when the token
	// is missing, expired, or already used; a retry after success must
	// fail the same way.
	RedeemResetToken(token string, hashedPassword string, now time.Time) error

	CreateBaby(baby *models.Baby) error
	ListBabiesByUser(userID string) ([]models.Baby, error)
}
