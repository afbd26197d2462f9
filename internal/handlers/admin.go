package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/skillforge-io/backend/internal/repositories"
)

// AdminHandler serves aggregate platform counts for the admin dashboard
type AdminHandler struct {
	userRepository    repositories.UserRepository
	projectRepository repositories.ProjectRepository
	forumRepository   repositories.ForumRepository
	courseRepository  repositories.CourseRepository
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	userRepo repositories.UserRepository,
	projectRepo repositories.ProjectRepository,
	forumRepo repositories.ForumRepository,
	courseRepo repositories.CourseRepository,
) *AdminHandler {
	return &AdminHandler{
		userRepository:    userRepo,
		projectRepository: projectRepo,
		forumRepository:   forumRepo,
		courseRepository:  courseRepo,
	}
}

// RegisterAdminRoutes registers admin routes; the caller applies the role guard
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/dashboard", h.GetDashboard)
	g.DELETE("/users/:id", h.DeleteUser)
}

// DeleteUser removes a user account. Admins cannot delete themselves.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if userID == getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot delete your own account")
	}

	if _, err := h.userRepository.GetUserByID(userID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	if err := h.userRepository.DeleteUser(userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// GetDashboard aggregates platform-wide counts
func (h *AdminHandler) GetDashboard(c echo.Context) error {
	users, err := h.userRepository.CountUsers()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	projects, err := h.projectRepository.CountProjects()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	posts, err := h.forumRepository.CountPosts()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	tracks, err := h.courseRepository.CountTracks()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"users":    users,
			"projects": projects,
			"posts":    posts,
			"tracks":   tracks,
		},
	})
}
