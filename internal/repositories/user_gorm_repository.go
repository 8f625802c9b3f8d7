package repositories

import (
	"errors"
	"fmt"
	"time"

	"parently/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// CreateResetToken stores a new password reset token.
func (r *GORMUserRepository) CreateResetToken(token *models.PasswordResetToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// RedeemResetToken marks the token used and rotates the owning user's
// password in one transaction. The mark-used step is a conditional
// UPDATE guarded by rows-affected, so two concurrent redemptions of the
// same token cannot both succeed.
func (r *GORMUserRepository) RedeemResetToken(token string, hashedPassword string, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordResetToken
		if err := tx.First(&reset, "token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to look up reset token: %w", err)
		}

		res := tx.Model(&models.PasswordResetToken{}).
			Where("token = ? AND used = ? AND expires_at > ?", token, false, now).
			Update("used", true)
		if res.Error != nil {
			return fmt.Errorf("failed to consume reset token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Expired, already used, or raced with another redemption.
			return ErrNotFound
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", reset.UserID).
			Update("password", hashedPassword).Error; err != nil {
			return fmt.Errorf("failed to rotate password: %w", err)
		}
		return nil
	})
}

// CreateBaby stores a new baby profile.
func (r *GORMUserRepository) CreateBaby(baby *models.Baby) error {
	if baby.ID == "" {
		baby.ID = uuid.New().String()
	}
	if err := r.db.Create(baby).Error; err != nil {
		return fmt.Errorf("failed to create baby: %w", err)
	}
	return nil
}

// ListBabiesByUser retrieves all babies belonging to a user.
func (r *GORMUserRepository) ListBabiesByUser(userID string) ([]models.Baby, error) {
	var babies []models.Baby
	if err := r.db.Where("user_id = ?", userID).Find(&babies).Error; err != nil {
		return nil, fmt.Errorf("failed to list babies for user %s: %w", userID, err)
	}
	return babies, nil
}
