package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"parently/internal/models"
	"parently/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles business logic for identity and credentials.
type AuthService struct {
	userRepo      repositories.UserRepository
	publisher     EventPublisher
	jwtSecret     []byte
	tokenDurat    time.Duration // Duration for which the session JWT is valid
	resetTokenTTL time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, publisher EventPublisher, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		publisher:     publisher,
		jwtSecret:     []byte(jwtSecret),
		tokenDurat:    24 * time.Hour,
		resetTokenTTL: time.Hour,
	}
}

// RegisterUser registers a new user, hashes their password, and saves
// them to the database. Duplicate checks run against both unique user
// indexes.
func (s *AuthService) RegisterUser(user *models.User) error {
	if existing, err := s.userRepo.GetByUsername(user.Username); err == nil && existing != nil {
		return ErrDuplicateUsername
	}
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost a race against a concurrent registration.
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// LoginUser authenticates a user and returns a session token. Unknown
// usernames and wrong passwords produce the same error so responses
// never reveal whether an account exists; bcrypt's comparison is
// constant-time.
func (s *AuthService) LoginUser(username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(user, false)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs a session JWT for the user. newUser marks a session
// created by registration so the client can steer the user toward
// onboarding; it is a navigation hint, never persisted.
func (s *AuthService) IssueToken(user *models.User, newUser bool) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"new_user": newUser,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a session JWT, returning the
// claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset issues a single-use reset token when the email
// belongs to an account. It succeeds silently for unknown emails so the
// endpoint cannot be used for account enumeration; delivery of the
// token is an event consumer's concern.
func (s *AuthService) RequestPasswordReset(email string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	reset := &models.PasswordResetToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.resetTokenTTL),
	}
	if err := s.userRepo.CreateResetToken(reset); err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	publishEvent(s.publisher, "user.password_reset_requested", map[string]interface{}{
		"userID": user.ID,
		"email":  user.Email,
		"token":  reset.Token,
	})
	log.Printf("Issued password reset token for user %s", user.ID)
	return nil
}

// ResetPassword redeems a reset token and rotates the password. The
// repository performs the redemption as an atomic update-if-unused, so
// a retried request with the same token after success fails here.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.RedeemResetToken(token, string(hashedPassword), time.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}
