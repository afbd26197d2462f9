package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillforge-io/backend/internal/cache"
	"github.com/skillforge-io/backend/internal/handlers"
	"github.com/skillforge-io/backend/internal/middleware"
	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
	"github.com/skillforge-io/backend/validators"
)

type projectFixture struct {
	e  *echo.Echo
	db *gorm.DB
	mr *miniredis.Miniredis
}

// newProjectServer wires the project routes over SQLite and miniredis, with
// one seeded owner, one visitor and one project.
func newProjectServer(t *testing.T) *projectFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectLike{},
		&models.ProjectComment{},
		&models.Notification{},
	))

	users := []models.User{
		{ID: 1, Username: "owner", Email: "owner@test.com", Password: "x", IsActive: true},
		{ID: 2, Username: "visitor", Email: "visitor@test.com", Password: "x", IsActive: true},
	}
	require.NoError(t, db.Create(&users).Error)
	require.NoError(t, db.Create(&models.Project{ID: 1, Title: "Pathfinder", AuthorID: 1}).Error)

	mr := miniredis.RunT(t)
	redisCache := cache.NewRedisCache(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = redisCache.Close() })

	e := echo.New()
	e.Validator = validators.NewValidator()
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(testJWTSecret))

	projectHandler := handlers.NewProjectHandler(
		repositories.NewPostgresProjectRepository(db),
		repositories.NewPostgresProjectLikeRepository(db),
		repositories.NewPostgresProjectCommentRepository(db),
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresNotificationRepository(db),
		redisCache,
	)
	projectHandler.RegisterProjectRoutes(api)

	return &projectFixture{e: e, db: db, mr: mr}
}

func tokenFor(t *testing.T, userID uint, role string) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func TestToggleLikeEndpoint(t *testing.T) {
	f := newProjectServer(t)
	visitor := tokenFor(t, 2, models.RoleStudent)

	rec := doJSON(f.e, http.MethodPost, "/api/v1/projects/1/like", "", visitor)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Liked bool `json:"liked"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Liked)

	// Notification row lands with the project owner
	var notifCount int64
	require.NoError(t, f.db.Model(&models.Notification{}).Where("recipient_id = ?", 1).Count(&notifCount).Error)
	assert.Equal(t, int64(1), notifCount)

	// Second call unlikes and restores the counter
	rec = doJSON(f.e, http.MethodPost, "/api/v1/projects/1/like", "", visitor)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Liked)

	var project models.Project
	require.NoError(t, f.db.First(&project, 1).Error)
	assert.Equal(t, 0, project.Likes)
}

func TestToggleLikeUnknownProject(t *testing.T) {
	f := newProjectServer(t)

	rec := doJSON(f.e, http.MethodPost, "/api/v1/projects/99/like", "", tokenFor(t, 2, models.RoleStudent))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLikesCountUsesCache(t *testing.T) {
	f := newProjectServer(t)
	visitor := tokenFor(t, 2, models.RoleStudent)

	rec := doJSON(f.e, http.MethodPost, "/api/v1/projects/1/like", "", visitor)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(f.e, http.MethodGet, "/api/v1/projects/1/likes/count", "", visitor)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		LikesCount int64 `json:"likes_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.LikesCount)

	// The count is now cached
	assert.True(t, f.mr.Exists("likes:count:1"))

	// Toggling invalidates the cached value
	rec = doJSON(f.e, http.MethodPost, "/api/v1/projects/1/like", "", visitor)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.mr.Exists("likes:count:1"))
}

func TestCreateCommentEndpoint(t *testing.T) {
	f := newProjectServer(t)
	visitor := tokenFor(t, 2, models.RoleStudent)

	rec := doJSON(f.e, http.MethodPost, "/api/v1/projects/1/comments",
		`{"content":"Clean A* implementation"}`, visitor)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var project models.Project
	require.NoError(t, f.db.First(&project, 1).Error)
	assert.Equal(t, 1, project.Comments)

	// Blank content is rejected before any write
	rec = doJSON(f.e, http.MethodPost, "/api/v1/projects/1/comments", `{"content":"   "}`, visitor)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProjectOwnerGuard(t *testing.T) {
	f := newProjectServer(t)

	// A non-owner student cannot delete
	rec := doJSON(f.e, http.MethodDelete, "/api/v1/projects/1", "", tokenFor(t, 2, models.RoleStudent))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// An admin can
	rec = doJSON(f.e, http.MethodDelete, "/api/v1/projects/1", "", tokenFor(t, 3, models.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUpdateCommentOwnerGuard(t *testing.T) {
	f := newProjectServer(t)
	visitor := tokenFor(t, 2, models.RoleStudent)

	rec := doJSON(f.e, http.MethodPost, "/api/v1/projects/1/comments", `{"content":"First pass"}`, visitor)
	require.Equal(t, http.StatusCreated, rec.Code)

	var comment models.ProjectComment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comment))
	path := fmt.Sprintf("/api/v1/projects/comments/%d", comment.ID)

	// Only the comment author may edit it
	rec = doJSON(f.e, http.MethodPut, path, `{"content":"Hijacked"}`, tokenFor(t, 1, models.RoleStudent))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(f.e, http.MethodPut, path, `{"content":"Second pass"}`, visitor)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, f.db.First(&comment, comment.ID).Error)
	assert.Equal(t, "Second pass", comment.Content)
}

func TestDeleteCommentRestoresCounter(t *testing.T) {
	f := newProjectServer(t)
	visitor := tokenFor(t, 2, models.RoleStudent)

	rec := doJSON(f.e, http.MethodPost, "/api/v1/projects/1/comments", `{"content":"Short lived"}`, visitor)
	require.Equal(t, http.StatusCreated, rec.Code)

	var comment models.ProjectComment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comment))
	path := fmt.Sprintf("/api/v1/projects/comments/%d", comment.ID)

	// A non-author student cannot delete, an admin can
	rec = doJSON(f.e, http.MethodDelete, path, "", tokenFor(t, 1, models.RoleStudent))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(f.e, http.MethodDelete, path, "", tokenFor(t, 3, models.RoleAdmin))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var project models.Project
	require.NoError(t, f.db.First(&project, 1).Error)
	assert.Equal(t, 0, project.Comments)

	rec = doJSON(f.e, http.MethodDelete, path, "", visitor)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
