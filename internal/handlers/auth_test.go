package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillforge-io/backend/internal/handlers"
	"github.com/skillforge-io/backend/internal/middleware"
	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
	"github.com/skillforge-io/backend/validators"
)

const testJWTSecret = "auth-test-secret"

// newAuthServer wires an Echo instance with the auth routes over an isolated
// SQLite database, mirroring the production route layout.
func newAuthServer(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	e := echo.New()
	e.Validator = validators.NewValidator()

	authHandler := handlers.NewAuthHandler(repositories.NewPostgresUserRepository(db), testJWTSecret, time.Hour)
	authHandler.RegisterAuthRoutes(e.Group("/api/v1/auth"))

	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(testJWTSecret))
	authHandler.RegisterProtectedRoutes(api)

	return e
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	e := newAuthServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","email":"alice@test.com","password":"supersecret"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var registered struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "alice", registered.User.Username)
	assert.Equal(t, models.RoleStudent, registered.User.Role)

	// The raw password never leaks into the response
	assert.NotContains(t, rec.Body.String(), "supersecret")

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"alice@test.com","password":"supersecret"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var loggedIn struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loggedIn))

	// The issued token opens the protected surface
	rec = doJSON(e, http.MethodGet, "/api/v1/auth/me", "", loggedIn.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice@test.com", me.Email)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	e := newAuthServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","email":"alice@test.com","password":"supersecret"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same email
	rec = doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"username":"other","email":"alice@test.com","password":"supersecret"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Same username
	rec = doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","email":"other@test.com","password":"supersecret"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	e := newAuthServer(t)

	// Short password
	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","email":"alice@test.com","password":"short"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Invalid email
	rec = doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","email":"not-an-email","password":"supersecret"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	e := newAuthServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"username":"alice","email":"alice@test.com","password":"supersecret"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"alice@test.com","password":"wrongpass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/auth/login",
		`{"email":"ghost@test.com","password":"supersecret"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	e := newAuthServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/auth/me", "", "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
