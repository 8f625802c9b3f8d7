package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"parently/internal/handlers"
	"parently/internal/middleware"
	"parently/internal/models"
	"parently/internal/repositories"
	"parently/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp builds a Fiber app over a fresh in-memory SQLite database
// with all handlers and services wired, mirroring main.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	// A unique shared-cache name isolates each test's database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.PasswordResetToken{},
		&models.Baby{},
		&models.Cohort{},
		&models.CohortMembership{},
		&models.Post{},
		&models.Comment{},
		&models.Upvote{},
	))

	userRepo := repositories.NewGORMUserRepository(db)
	cohortRepo := repositories.NewGORMCohortRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)

	authService := services.NewAuthService(userRepo, nil, "test_jwt_secret")
	cohortService := services.NewCohortService(cohortRepo, userRepo, nil)
	postService := services.NewPostService(postRepo, cohortRepo, nil)

	authHandler := handlers.NewAuthHandler(authService)
	cohortHandler := handlers.NewCohortHandler(cohortService)
	postHandler := handlers.NewPostHandler(postService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protected)
	cohortHandler.RegisterRoutes(protected)
	postHandler.RegisterRoutes(protected)

	return app, db
}

// client drives the API as one logged-in user, carrying the session
// cookie between requests.
type client struct {
	t       *testing.T
	app     *fiber.App
	session string
}

func (c *client) do(method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	c.t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(c.t, err)
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, "/api/v1"+path, reqBody)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: c.session})
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookieName {
			c.session = cookie.Value
		}
	}

	decoded := make(map[string]interface{})
	if resp.ContentLength != 0 {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	resp.Body.Close()
	return resp, decoded
}

func registerUser(t *testing.T, app *fiber.App, username string) *client {
	t.Helper()
	c := &client{t: t, app: app}
	resp, body := c.do(http.MethodPost, "/register", fiber.Map{
		"username":  username,
		"email":     username + "@example.com",
		"full_name": username,
		"password":  "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register %s: %v", username, body)
	require.NotEmpty(t, c.session, "register should establish a session")
	return c
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	app, _ := setupApp(t)

	alice := registerUser(t, app, "alice")

	// The register response carries the onboarding hint
	resp, body := alice.do(http.MethodGet, "/user", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	registeredID := user["id"]

	// A fresh login yields a session for the same user id
	fresh := &client{t: t, app: app}
	resp, body = fresh.do(http.MethodPost, "/login", fiber.Map{
		"username": "alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, registeredID, body["user"].(map[string]interface{})["id"])

	// Duplicate registration conflicts
	dup := &client{t: t, app: app}
	resp, _ = dup.do(http.MethodPost, "/register", fiber.Map{
		"username":  "alice",
		"email":     "other@example.com",
		"full_name": "Other",
		"password":  "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	app, _ := setupApp(t)
	registerUser(t, app, "alice")

	c := &client{t: t, app: app}
	resp, wrongPass := c.do(http.MethodPost, "/login", fiber.Map{
		"username": "alice",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c = &client{t: t, app: app}
	resp, unknownUser := c.do(http.MethodPost, "/login", fiber.Map{
		"username": "nobody",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, wrongPass["message"], unknownUser["message"])
}

func TestUnauthenticatedRequestsGetJSON401(t *testing.T) {
	app, _ := setupApp(t)

	anon := &client{t: t, app: app}
	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/user"},
		{http.MethodGet, "/cohorts"},
		{http.MethodPost, "/posts"},
		{http.MethodDelete, "/cohort-membership/some-id"},
	} {
		resp, body := anon.do(route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
		assert.NotEmpty(t, body["message"], "%s %s should carry a JSON error body", route.method, route.path)
	}
}

func TestModeratorManagementScenario(t *testing.T) {
	app, _ := setupApp(t)

	alice := registerUser(t, app, "alice")
	bob := registerUser(t, app, "bob")
	carol := registerUser(t, app, "carol")

	// Alice creates a cohort and becomes its moderator
	resp, body := alice.do(http.MethodPost, "/cohorts", fiber.Map{
		"name":        "NYC Parents",
		"description": "Parents in NYC",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cohortID := body["cohort"].(map[string]interface{})["id"].(string)

	resp, body = alice.do(http.MethodGet, "/cohorts/"+cohortID+"/is-moderator", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["is_moderator"])

	// Alice adds Bob by email; he shows up as a member
	resp, body = alice.do(http.MethodPost, "/cohort-membership", fiber.Map{
		"cohort_id": cohortID,
		"email":     "bob@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bobMembership := body["membership"].(map[string]interface{})
	assert.Equal(t, "member", bobMembership["role"])

	resp, body = alice.do(http.MethodGet, "/cohorts/"+cohortID+"/members", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["members"].([]interface{}), 2)

	// Adding Bob again is a conflict, not a duplicate row
	resp, _ = alice.do(http.MethodPost, "/cohort-membership", fiber.Map{
		"cohort_id": cohortID,
		"email":     "bob@example.com",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Bob cannot manage members yet
	resp, _ = bob.do(http.MethodPost, "/cohort-membership", fiber.Map{
		"cohort_id": cohortID,
		"email":     "carol@example.com",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Alice promotes Bob; now he can add and remove Carol
	resp, _ = alice.do(http.MethodPut, "/cohort-membership/"+bobMembership["id"].(string), fiber.Map{
		"role": "moderator",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = bob.do(http.MethodPost, "/cohort-membership", fiber.Map{
		"cohort_id": cohortID,
		"email":     "carol@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	carolMembershipID := body["membership"].(map[string]interface{})["id"].(string)

	resp, _ = bob.do(http.MethodDelete, "/cohort-membership/"+carolMembershipID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = carol.do(http.MethodGet, "/cohorts/"+cohortID+"/members", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, raw := range body["members"].([]interface{}) {
		member := raw.(map[string]interface{})
		assert.NotEqual(t, "carol", member["user"].(map[string]interface{})["username"])
	}

	// The cohort's only remaining moderator pair cannot be emptied out:
	// demoting Bob then Alice stops at the last one.
	resp, _ = alice.do(http.MethodPut, "/cohort-membership/"+bobMembership["id"].(string), fiber.Map{
		"role": "member",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = alice.do(http.MethodGet, "/cohorts/"+cohortID+"/moderators", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moderators := body["moderators"].([]interface{})
	require.Len(t, moderators, 1)
	aliceMembershipID := moderators[0].(map[string]interface{})["id"].(string)

	resp, _ = alice.do(http.MethodPut, "/cohort-membership/"+aliceMembershipID, fiber.Map{
		"role": "member",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = alice.do(http.MethodDelete, "/cohort-membership/"+aliceMembershipID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPostAuthorOnlyEditScenario(t *testing.T) {
	app, _ := setupApp(t)

	alice := registerUser(t, app, "alice")
	dave := registerUser(t, app, "dave")

	resp, body := alice.do(http.MethodPost, "/cohorts", fiber.Map{"name": "Cohort X"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cohortID := body["cohort"].(map[string]interface{})["id"].(string)

	resp, body = alice.do(http.MethodPost, "/posts", fiber.Map{
		"cohort_id": cohortID,
		"content":   "Hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	postID := body["post"].(map[string]interface{})["id"].(string)

	// A non-author's edit looks exactly like editing a missing post
	resp, _ = dave.do(http.MethodPut, "/posts/"+postID, fiber.Map{"content": "hijacked"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = dave.do(http.MethodPut, "/posts/no-such-post", fiber.Map{"content": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The author's edit lands and is visible in the listing
	resp, _ = alice.do(http.MethodPut, "/posts/"+postID, fiber.Map{"content": "Hello again"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = dave.do(http.MethodGet, "/cohorts/"+cohortID+"/posts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	posts := body["posts"].([]interface{})
	require.Len(t, posts, 1)
	post := posts[0].(map[string]interface{})
	assert.Equal(t, "Hello again", post["content"])
	assert.Equal(t, "alice", post["author"].(map[string]interface{})["username"])

	// Blank content is a validation failure, not an empty edit
	resp, _ = alice.do(http.MethodPost, "/posts", fiber.Map{
		"cohort_id": cohortID,
		"content":   "   ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommentFlow(t *testing.T) {
	app, _ := setupApp(t)

	alice := registerUser(t, app, "alice")
	dave := registerUser(t, app, "dave")

	resp, body := alice.do(http.MethodPost, "/cohorts", fiber.Map{"name": "Cohort X"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cohortID := body["cohort"].(map[string]interface{})["id"].(string)

	resp, body = alice.do(http.MethodPost, "/posts", fiber.Map{
		"cohort_id": cohortID,
		"content":   "Hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	postID := body["post"].(map[string]interface{})["id"].(string)

	resp, body = dave.do(http.MethodPost, "/comments", fiber.Map{
		"post_id": postID,
		"content": "Welcome!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	commentID := body["comment"].(map[string]interface{})["id"].(string)

	// Author-only mutation applies to comments too
	resp, _ = alice.do(http.MethodDelete, "/comments/"+commentID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = dave.do(http.MethodPut, "/comments/"+commentID, fiber.Map{"content": "Welcome aboard!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = alice.do(http.MethodGet, "/posts/"+postID+"/comments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := body["comments"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, "Welcome aboard!", comments[0].(map[string]interface{})["content"])
}

func TestUpvoteFlow(t *testing.T) {
	app, _ := setupApp(t)

	alice := registerUser(t, app, "alice")
	bob := registerUser(t, app, "bob")

	resp, body := alice.do(http.MethodPost, "/cohorts", fiber.Map{"name": "Cohort X"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cohortID := body["cohort"].(map[string]interface{})["id"].(string)

	resp, body = alice.do(http.MethodPost, "/posts", fiber.Map{
		"cohort_id": cohortID,
		"content":   "Hello",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	postID := body["post"].(map[string]interface{})["id"].(string)

	resp, _ = bob.do(http.MethodPost, "/upvotes", fiber.Map{"post_id": postID})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = bob.do(http.MethodPost, "/upvotes", fiber.Map{"post_id": postID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = bob.do(http.MethodGet, "/posts/"+postID+"/upvotes/count", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	resp, body = bob.do(http.MethodGet, "/posts/"+postID+"/upvotes/user", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["upvoted"])

	resp, _ = bob.do(http.MethodDelete, "/posts/"+postID+"/upvotes", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = bob.do(http.MethodGet, "/posts/"+postID+"/upvotes/count", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["count"])

	resp, _ = bob.do(http.MethodDelete, "/posts/"+postID+"/upvotes", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	app, db := setupApp(t)

	registerUser(t, app, "alice")

	anon := &client{t: t, app: app}
	resp, known := anon.do(http.MethodPost, "/forgot-password", fiber.Map{
		"email": "alice@example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Unknown emails get the identical response
	anon2 := &client{t: t, app: app}
	resp, unknown := anon2.do(http.MethodPost, "/forgot-password", fiber.Map{
		"email": "ghost@example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, known["message"], unknown["message"])

	// The token itself would arrive by email; fetch it from storage here
	var reset models.PasswordResetToken
	require.NoError(t, db.First(&reset).Error)

	resp, _ = anon.do(http.MethodPost, "/reset-password", fiber.Map{
		"token":        reset.Token,
		"new_password": "rotated-secret",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// New password works, old one does not
	fresh := &client{t: t, app: app}
	resp, _ = fresh.do(http.MethodPost, "/login", fiber.Map{
		"username": "alice",
		"password": "rotated-secret",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	fresh = &client{t: t, app: app}
	resp, _ = fresh.do(http.MethodPost, "/login", fiber.Map{
		"username": "alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The token is spent: a retry fails
	resp, _ = anon.do(http.MethodPost, "/reset-password", fiber.Map{
		"token":        reset.Token,
		"new_password": "another-secret",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBabyOnboardingFlow(t *testing.T) {
	app, _ := setupApp(t)

	alice := registerUser(t, app, "alice")
	bob := registerUser(t, app, "bob")

	resp, body := alice.do(http.MethodPost, "/babies", fiber.Map{
		"name":       "Sam",
		"birth_date": "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cohortA := body["cohort"].(map[string]interface{})
	assert.Equal(t, "March 2025 Babies", cohortA["name"])

	// A birth in the same month lands in the same cohort
	resp, body = bob.do(http.MethodPost, "/babies", fiber.Map{
		"name":       "Alex",
		"birth_date": "2025-03-25",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, cohortA["id"], body["cohort"].(map[string]interface{})["id"])

	// Both parents now see the bucket in their cohort list
	resp, body = alice.do(http.MethodGet, "/user/cohorts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["cohorts"].([]interface{}), 1)

	resp, body = alice.do(http.MethodGet, "/user/babies", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["babies"].([]interface{}), 1)

	// Malformed birth dates are rejected up front
	resp, _ = alice.do(http.MethodPost, "/babies", fiber.Map{
		"name":       "Robin",
		"birth_date": "March 10th",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutClearsSession(t *testing.T) {
	app, _ := setupApp(t)

	alice := registerUser(t, app, "alice")
	resp, body := alice.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// The cleared cookie no longer authenticates
	resp, _ = alice.do(http.MethodGet, "/user", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
