package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

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

type courseFixture struct {
	e  *echo.Echo
	db *gorm.DB
}

// newCourseServer wires the learning-track routes over SQLite with two
// students and one track. Content routes need MongoDB and stay untested here.
func newCourseServer(t *testing.T) *courseFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Track{}, &models.Enrollment{}))

	users := []models.User{
		{ID: 1, Username: "learner", Email: "learner@test.com", Password: "x", IsActive: true},
		{ID: 2, Username: "other", Email: "other@test.com", Password: "x", IsActive: true},
	}
	require.NoError(t, db.Create(&users).Error)
	require.NoError(t, db.Create(&models.Track{ID: 1, Title: "Backend with Go", Level: "BEGINNER", InstructorID: 2}).Error)

	e := echo.New()
	e.Validator = validators.NewValidator()
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(testJWTSecret))

	courseHandler := handlers.NewCourseHandler(
		repositories.NewHybridCourseRepository(db, nil),
		repositories.NewPostgresUserRepository(db),
	)
	courseHandler.RegisterCourseRoutes(api)

	return &courseFixture{e: e, db: db}
}

// enroll creates an enrollment for userID in track 1 and returns its ID.
func (f *courseFixture) enroll(t *testing.T, userID uint) uint {
	t.Helper()

	rec := doJSON(f.e, http.MethodPost, "/api/v1/learning/tracks/1/enroll", "", tokenFor(t, userID, models.RoleStudent))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var enrollment models.Enrollment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enrollment))
	return enrollment.ID
}

func TestUpdateProgress(t *testing.T) {
	f := newCourseServer(t)
	learner := tokenFor(t, 1, models.RoleStudent)
	id := f.enroll(t, 1)
	path := fmt.Sprintf("/api/v1/learning/enrollments/%d/progress", id)

	rec := doJSON(f.e, http.MethodPatch, path, `{"progress":60}`, learner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var enrollment models.Enrollment
	require.NoError(t, f.db.First(&enrollment, id).Error)
	assert.Equal(t, 60, enrollment.Progress)
	assert.Nil(t, enrollment.CompletedAt)

	// Reaching 100 stamps the completion time
	rec = doJSON(f.e, http.MethodPatch, path, `{"progress":100}`, learner)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, f.db.First(&enrollment, id).Error)
	assert.Equal(t, 100, enrollment.Progress)
	assert.NotNil(t, enrollment.CompletedAt)

	// Dropping back below clears it again
	rec = doJSON(f.e, http.MethodPatch, path, `{"progress":40}`, learner)
	require.Equal(t, http.StatusOK, rec.Code)
	// GORM leaves struct fields untouched when a column scans as NULL,
	// so read into a fresh value rather than the reused one
	enrollment = models.Enrollment{}
	require.NoError(t, f.db.First(&enrollment, id).Error)
	assert.Equal(t, 40, enrollment.Progress)
	assert.Nil(t, enrollment.CompletedAt)
}

func TestUpdateProgressOutOfRange(t *testing.T) {
	f := newCourseServer(t)
	learner := tokenFor(t, 1, models.RoleStudent)
	id := f.enroll(t, 1)
	path := fmt.Sprintf("/api/v1/learning/enrollments/%d/progress", id)

	rec := doJSON(f.e, http.MethodPatch, path, `{"progress":150}`, learner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(f.e, http.MethodPatch, path, `{"progress":-5}`, learner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var enrollment models.Enrollment
	require.NoError(t, f.db.First(&enrollment, id).Error)
	assert.Equal(t, 0, enrollment.Progress)
}

func TestUpdateProgressForeignEnrollment(t *testing.T) {
	f := newCourseServer(t)
	id := f.enroll(t, 1)

	// Another user's enrollment looks like a missing one
	rec := doJSON(f.e, http.MethodPatch, fmt.Sprintf("/api/v1/learning/enrollments/%d/progress", id),
		`{"progress":80}`, tokenFor(t, 2, models.RoleStudent))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var enrollment models.Enrollment
	require.NoError(t, f.db.First(&enrollment, id).Error)
	assert.Equal(t, 0, enrollment.Progress)
}
