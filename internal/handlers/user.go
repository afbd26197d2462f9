package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
)

// UserHandler handles user profile, search and dashboard requests
type UserHandler struct {
	userRepository    repositories.UserRepository
	projectRepository repositories.ProjectRepository
	courseRepository  repositories.CourseRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, projectRepo repositories.ProjectRepository, courseRepo repositories.CourseRepository) *UserHandler {
	return &UserHandler{
		userRepository:    userRepo,
		projectRepository: projectRepo,
		courseRepository:  courseRepo,
	}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/profile/:username", h.GetProfile)
	g.PUT("/users/profile", h.UpdateProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/dashboard", h.GetDashboard)
}

// GetProfile retrieves a public user profile by username
func (h *UserHandler) GetProfile(c echo.Context) error {
	username := c.Param("username")

	user, err := h.userRepository.GetUserByUsername(username)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	projects, err := h.projectRepository.GetRecentProjectsByAuthor(user.ID, 5)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":     user.ToCompact(),
		"bio":      user.Bio,
		"projects": projects,
	})
}

// UpdateProfile updates the authenticated user's profile fields
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, user)
}

// SearchUsers searches for users by username, name or email substring
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query is required")
	}

	page, limit := parsePagination(c)

	users, total, err := h.userRepository.SearchUsers(query, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	compact := make([]models.UserCompact, len(users))
	for i, u := range users {
		compact[i] = u.ToCompact()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"users": compact},
		"meta":    paginationMeta(page, limit, total),
	})
}

// GetDashboard aggregates recent activity for the authenticated user
func (h *UserHandler) GetDashboard(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	recentProjects, err := h.projectRepository.GetRecentProjectsByAuthor(currentUserID, 5)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	recentEnrollments, err := h.courseRepository.GetEnrollmentsByUserID(currentUserID, 5)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"user": echo.Map{
				"id":            user.ID,
				"first_name":    user.FirstName,
				"last_name":     user.LastName,
				"total_xp":      user.TotalXP,
				"current_level": user.CurrentLevel,
			},
			"recentProjects":    recentProjects,
			"recentEnrollments": recentEnrollments,
		},
	})
}
