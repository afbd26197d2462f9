package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
)

// CourseHandler handles HTTP requests for learning tracks and enrollments
type CourseHandler struct {
	courseRepository repositories.CourseRepository
	userRepository   repositories.UserRepository
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courseRepo repositories.CourseRepository, userRepo repositories.UserRepository) *CourseHandler {
	return &CourseHandler{
		courseRepository: courseRepo,
		userRepository:   userRepo,
	}
}

// RegisterCourseRoutes registers learning-track routes
func (h *CourseHandler) RegisterCourseRoutes(g *echo.Group) {
	g.GET("/learning/tracks", h.GetTracks)
	g.GET("/learning/tracks/:id", h.GetTrack)
	g.POST("/learning/tracks", h.CreateTrack, requireInstructor())
	g.POST("/learning/tracks/:id/enroll", h.Enroll)
	g.GET("/learning/enrollments", h.GetEnrollments)
	g.PATCH("/learning/enrollments/:id/progress", h.UpdateProgress)
	g.GET("/learning/tracks/:id/content", h.GetTrackContent)
}

// requireInstructor guards track creation behind the instructor/admin roles
func requireInstructor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := getUserClaimsFromContext(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if claims.Role != models.RoleInstructor && claims.Role != models.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Instructor role required")
			}
			return next(c)
		}
	}
}

// GetTracks lists learning tracks with optional level filter
func (h *CourseHandler) GetTracks(c echo.Context) error {
	page, limit := parsePagination(c)

	tracks, total, err := h.courseRepository.GetTracks(c.QueryParam("level"), page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"tracks": tracks},
		"meta":    paginationMeta(page, limit, total),
	})
}

// GetTrack retrieves a single learning track
func (h *CourseHandler) GetTrack(c echo.Context) error {
	trackID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid track ID")
	}

	track, err := h.courseRepository.GetTrackByID(trackID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Track not found")
	}

	return c.JSON(http.StatusOK, track)
}

// CreateTrack creates a track and stores its lesson content in MongoDB
func (h *CourseHandler) CreateTrack(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.CreateTrackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	track := &models.Track{
		Title:        req.Title,
		Description:  req.Description,
		Level:        req.Level,
		Thumbnail:    req.Thumbnail,
		InstructorID: currentUserID,
	}

	if err := h.courseRepository.CreateTrack(track); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if len(req.Lessons) > 0 {
		content := &models.TrackContent{
			TrackID: track.ID,
			Lessons: req.Lessons,
		}
		if err := h.courseRepository.CreateTrackContent(c.Request().Context(), content); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		track.ContentID = content.ID.Hex()
		if err := h.courseRepository.UpdateTrack(track); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, track)
}

// Enroll enrolls the authenticated user in a track
func (h *CourseHandler) Enroll(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	trackID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid track ID")
	}

	if _, err := h.courseRepository.GetTrackByID(trackID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Track not found")
	}

	// Duplicate enrollments are surfaced as a conflict
	if _, err := h.courseRepository.GetEnrollment(currentUserID, trackID); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Already enrolled in this track")
	}

	enrollment, err := h.courseRepository.EnrollUser(currentUserID, trackID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, enrollment)
}

// GetEnrollments lists the authenticated user's enrollments
func (h *CourseHandler) GetEnrollments(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	enrollments, err := h.courseRepository.GetEnrollmentsByUserID(currentUserID, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"enrollments": enrollments}})
}

// UpdateProgress updates the authenticated user's progress in an enrollment.
// Reaching 100 percent stamps the completion time; dropping back below
// clears it.
func (h *CourseHandler) UpdateProgress(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	enrollmentID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid enrollment ID")
	}

	var req models.UpdateProgressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Progress must be between 0 and 100")
	}

	enrollment, err := h.courseRepository.GetEnrollmentByID(enrollmentID)
	if err != nil || enrollment.UserID != currentUserID {
		// Another user's enrollment looks the same as a missing one
		return echo.NewHTTPError(http.StatusNotFound, "Enrollment not found")
	}

	enrollment.Progress = req.Progress
	if req.Progress >= 100 {
		if enrollment.CompletedAt == nil {
			now := time.Now()
			enrollment.CompletedAt = &now
		}
	} else {
		enrollment.CompletedAt = nil
	}

	if err := h.courseRepository.UpdateEnrollment(enrollment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, enrollment)
}

// GetTrackContent retrieves a track's lesson content document; only
// enrolled users may read it
func (h *CourseHandler) GetTrackContent(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	trackID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid track ID")
	}

	track, err := h.courseRepository.GetTrackByID(trackID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Track not found")
	}

	if _, err := h.courseRepository.GetEnrollment(currentUserID, trackID); err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "Enroll in this track to access its content")
	}

	if track.ContentID == "" {
		return echo.NewHTTPError(http.StatusNotFound, "Track has no content yet")
	}

	content, err := h.courseRepository.GetTrackContentByID(c.Request().Context(), track.ContentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Track content not found")
	}

	return c.JSON(http.StatusOK, content)
}
