package services_test

import (
	"testing"
	"time"

	"parently/internal/models"
	"parently/internal/repositories"
	"parently/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) CreateResetToken(token *models.PasswordResetToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockUserRepository) RedeemResetToken(token string, hashedPassword string, now time.Time) error {
	args := m.Called(token, hashedPassword, now)
	return args.Error(0)
}

func (m *MockUserRepository) CreateBaby(baby *models.Baby) error {
	args := m.Called(baby)
	return args.Error(0)
}

func (m *MockUserRepository) ListBabiesByUser(userID string) ([]models.Baby, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Baby), args.Error(1)
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	routingKeys []string
	bodies      [][]byte
}

func (p *capturingPublisher) Publish(exchange, routingKey string, body []byte) error {
	p.routingKeys = append(p.routingKeys, routingKey)
	p.bodies = append(p.bodies, body)
	return nil
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil, "test_jwt_secret")

	user := &models.User{
		Username: "testparent",
		Email:    "parent@example.com",
		FullName: "Test Parent",
		Password: "password123",
	}

	// Successful registration hashes the password and defaults the role
	mockRepo.On("GetByUsername", user.Username).Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("GetByEmail", user.Email).Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(user)
	assert.NoError(t, err)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	assert.Equal(t, models.RoleUser, user.Role)
	mockRepo.AssertExpectations(t)

	// Username already taken
	mockRepo.On("GetByUsername", user.Username).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(user)
	assert.ErrorIs(t, err, services.ErrDuplicateUsername)
	mockRepo.AssertExpectations(t)

	// Email already registered
	mockRepo.On("GetByUsername", user.Username).Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("GetByEmail", user.Email).Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(user)
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
	mockRepo.AssertExpectations(t)

	// Losing a race against a concurrent registration still reads as a conflict
	mockRepo.On("GetByUsername", user.Username).Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("GetByEmail", user.Email).Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(repositories.ErrDuplicate).Once()
	err = authService.RegisterUser(user)
	assert.ErrorIs(t, err, services.ErrDuplicateUsername)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, nil, testJWTSecret)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "testparent",
		Email:    "parent@example.com",
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}

	// Successful login returns a token carrying identity and role claims
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	token, loggedIn, err := authService.LoginUser("testparent", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Username, claims["username"])
	assert.Equal(t, models.RoleUser, claims["role"])
	assert.Equal(t, false, claims["new_user"])
	mockRepo.AssertExpectations(t)

	// Wrong password and unknown username are indistinguishable
	mockRepo.On("GetByUsername", user.Username).Return(user, nil).Once()
	_, _, err = authService.LoginUser("testparent", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	mockRepo.On("GetByUsername", "nobody").Return(nil, repositories.ErrNotFound).Once()
	_, _, err = authService.LoginUser("nobody", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	testJWTSecret := "test_jwt_secret"
	authService := services.NewAuthService(mockRepo, nil, testJWTSecret)

	user := &models.User{ID: "user-123", Username: "testparent", Role: models.RoleUser}
	validToken, err := authService.IssueToken(user, true)
	assert.NoError(t, err)

	claims, err := authService.ValidateToken(validToken)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])
	assert.Equal(t, true, claims["new_user"])

	// Garbage token
	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)

	// Expired token
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	expiredString, _ := expired.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredString)
	assert.Error(t, err)
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	mockRepo := new(MockUserRepository)
	publisher := &capturingPublisher{}
	authService := services.NewAuthService(mockRepo, publisher, "test_jwt_secret")

	user := &models.User{ID: "user-123", Email: "parent@example.com"}

	// Known email issues a one-hour single-use token and publishes an event
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	mockRepo.On("CreateResetToken", mock.MatchedBy(func(token *models.PasswordResetToken) bool {
		return token.UserID == user.ID &&
			token.Token != "" &&
			!token.Used &&
			token.ExpiresAt.After(time.Now().Add(50*time.Minute))
	})).Return(nil).Once()

	err := authService.RequestPasswordReset(user.Email)
	assert.NoError(t, err)
	assert.Equal(t, []string{"user.password_reset_requested"}, publisher.routingKeys)
	mockRepo.AssertExpectations(t)

	// Unknown email succeeds silently without issuing anything
	mockRepo.On("GetByEmail", "ghost@example.com").Return(nil, repositories.ErrNotFound).Once()
	err = authService.RequestPasswordReset("ghost@example.com")
	assert.NoError(t, err)
	assert.Len(t, publisher.routingKeys, 1)
	mockRepo.AssertNotCalled(t, "CreateResetToken", mock.Anything)
}

func TestAuthService_ResetPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, nil, "test_jwt_secret")

	// Success rotates to a bcrypt hash of the new password
	mockRepo.On("RedeemResetToken", "good-token", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpassword")) == nil
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := authService.ResetPassword("good-token", "newpassword")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Missing, expired, and consumed tokens all fail the same way
	mockRepo.On("RedeemResetToken", "spent-token", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(repositories.ErrNotFound).Once()
	err = authService.ResetPassword("spent-token", "newpassword")
	assert.ErrorIs(t, err, services.ErrInvalidOrExpiredToken)
	mockRepo.AssertExpectations(t)
}
