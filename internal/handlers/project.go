package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/skillforge-io/backend/internal/cache"
	"github.com/skillforge-io/backend/internal/logger"
	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
)

// ProjectHandler handles HTTP requests related to projects, likes and comments
type ProjectHandler struct {
	projectRepository      repositories.ProjectRepository
	likeRepository         repositories.ProjectLikeRepository
	commentRepository      repositories.ProjectCommentRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	cache                  *cache.RedisCache
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(
	projectRepo repositories.ProjectRepository,
	likeRepo repositories.ProjectLikeRepository,
	commentRepo repositories.ProjectCommentRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	redisCache *cache.RedisCache,
) *ProjectHandler {
	return &ProjectHandler{
		projectRepository:      projectRepo,
		likeRepository:         likeRepo,
		commentRepository:      commentRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		cache:                  redisCache,
	}
}

// RegisterProjectRoutes registers project-related routes
func (h *ProjectHandler) RegisterProjectRoutes(g *echo.Group) {
	g.GET("/projects", h.GetProjects)
	g.GET("/projects/featured", h.GetFeaturedProjects)
	g.GET("/projects/:id", h.GetProject)
	g.POST("/projects", h.CreateProject)
	g.PUT("/projects/:id", h.UpdateProject)
	g.DELETE("/projects/:id", h.DeleteProject)
	g.POST("/projects/:id/like", h.ToggleLike)
	g.GET("/projects/:id/likes/count", h.GetLikesCount)
	g.GET("/projects/:id/comments", h.GetComments)
	g.POST("/projects/:id/comments", h.CreateComment)
	g.PUT("/projects/comments/:id", h.UpdateComment)
	g.DELETE("/projects/comments/:id", h.DeleteComment)
}

// GetProjects lists projects with filters, substring search and pagination
func (h *ProjectHandler) GetProjects(c echo.Context) error {
	page, limit := parsePagination(c)

	filter := repositories.ProjectFilter{
		Technology: c.QueryParam("technology"),
		Difficulty: c.QueryParam("difficulty"),
		Search:     c.QueryParam("q"),
	}
	if authorID, err := strconv.ParseUint(c.QueryParam("author_id"), 10, 32); err == nil {
		filter.AuthorID = uint(authorID)
	}

	projects, total, err := h.projectRepository.GetProjects(filter, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"projects": projects},
		"meta":    paginationMeta(page, limit, total),
	})
}

// GetFeaturedProjects lists featured projects ordered by likes
func (h *ProjectHandler) GetFeaturedProjects(c echo.Context) error {
	projects, err := h.projectRepository.GetFeaturedProjects(10)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"projects": projects}})
}

// GetProject retrieves a single project and bumps its view counter
func (h *ProjectHandler) GetProject(c echo.Context) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	project, err := h.projectRepository.GetProjectByID(projectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}

	go h.projectRepository.IncrementViews(projectID)

	return c.JSON(http.StatusOK, project)
}

// CreateProject creates a new project owned by the authenticated user
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project := &models.Project{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		Technology:  req.Technology,
		Thumbnail:   req.Thumbnail,
		RepoURL:     req.RepoURL,
		DemoURL:     req.DemoURL,
		AuthorID:    currentUserID,
	}

	if err := h.projectRepository.CreateProject(project); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, project)
}

// UpdateProject updates a project owned by the authenticated user
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	var req models.UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project, err := h.projectRepository.GetProjectByID(projectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}

	// Ensure the user updating the project is the owner
	if project.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this project")
	}

	if req.Title != "" {
		project.Title = req.Title
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.Difficulty != "" {
		project.Difficulty = req.Difficulty
	}
	if req.Technology != "" {
		project.Technology = req.Technology
	}
	if req.Thumbnail != "" {
		project.Thumbnail = req.Thumbnail
	}
	if req.RepoURL != "" {
		project.RepoURL = req.RepoURL
	}
	if req.DemoURL != "" {
		project.DemoURL = req.DemoURL
	}

	if err := h.projectRepository.UpdateProject(project); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, project)
}

// DeleteProject deletes a project owned by the authenticated user
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	project, err := h.projectRepository.GetProjectByID(projectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}

	claims := getUserClaimsFromContext(c)
	if project.AuthorID != currentUserID && (claims == nil || claims.Role != models.RoleAdmin) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this project")
	}

	if err := h.projectRepository.DeleteProject(projectID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// ToggleLike flips the authenticated user's like on a project. It shares the
// transactional toggle with the realtime handler, so the REST and socket
// paths cannot diverge.
func (h *ProjectHandler) ToggleLike(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	project, err := h.projectRepository.GetProjectByID(projectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}

	liked, err := h.likeRepository.ToggleLike(currentUserID, projectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to like project")
	}

	if h.cache != nil {
		_ = h.cache.InvalidateLikeCount(c.Request().Context(), projectID)
	}

	if liked && project.AuthorID != currentUserID {
		notification := &models.Notification{
			Type:        models.NotificationTypeLike,
			ActorID:     currentUserID,
			RecipientID: project.AuthorID,
			TargetID:    strconv.FormatUint(uint64(projectID), 10),
			TargetType:  "project",
			Message:     fmt.Sprintf("liked your project %q", project.Title),
		}
		if err := h.notificationRepository.CreateNotification(notification); err != nil {
			logger.Warn("Failed to persist like notification", "err", err)
		}
	}

	message := "Project liked"
	if !liked {
		message = "Project unliked"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": message,
		"data":    echo.Map{"liked": liked},
	})
}

// GetLikesCount returns the like count for a project, cache-first
func (h *ProjectHandler) GetLikesCount(c echo.Context) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	if _, err := h.projectRepository.GetProjectByID(projectID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}

	ctx := c.Request().Context()
	if h.cache != nil {
		if count, ok, err := h.cache.GetLikeCount(ctx, projectID); err == nil && ok {
			return c.JSON(http.StatusOK, echo.Map{"project_id": projectID, "likes_count": count})
		}
	}

	count, err := h.likeRepository.GetLikesCountByProjectID(projectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if h.cache != nil {
		_ = h.cache.UpdateLikeCount(ctx, projectID, count)
	}

	return c.JSON(http.StatusOK, echo.Map{"project_id": projectID, "likes_count": count})
}

// GetComments retrieves paginated comments for a project
func (h *ProjectHandler) GetComments(c echo.Context) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	if _, err := h.projectRepository.GetProjectByID(projectID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}

	page, limit := parsePagination(c)
	comments, total, err := h.commentRepository.GetCommentsByProjectID(projectID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"comments": comments},
		"meta":    paginationMeta(page, limit, total),
	})
}

// CreateComment creates a comment on a project
func (h *ProjectHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	var req models.CreateProjectCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Comment content is required")
	}

	project, err := h.projectRepository.GetProjectByID(projectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found")
	}

	comment := &models.ProjectComment{
		ProjectID: projectID,
		UserID:    currentUserID,
		Content:   strings.TrimSpace(req.Content),
	}

	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if project.AuthorID != currentUserID {
		notification := &models.Notification{
			Type:        models.NotificationTypeComment,
			ActorID:     currentUserID,
			RecipientID: project.AuthorID,
			TargetID:    strconv.FormatUint(uint64(projectID), 10),
			TargetType:  "project",
			Message:     fmt.Sprintf("commented on your project %q", project.Title),
		}
		if err := h.notificationRepository.CreateNotification(notification); err != nil {
			logger.Warn("Failed to persist comment notification", "err", err)
		}
	}

	return c.JSON(http.StatusCreated, comment)
}

// UpdateComment edits a comment owned by the authenticated user
func (h *ProjectHandler) UpdateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	commentID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	var req models.UpdateProjectCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Comment content is required")
	}

	comment, err := h.commentRepository.GetCommentByID(commentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	if comment.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this comment")
	}

	comment.Content = strings.TrimSpace(req.Content)
	if err := h.commentRepository.UpdateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment owned by the authenticated user
func (h *ProjectHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	commentID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(commentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	claims := getUserClaimsFromContext(c)
	if comment.UserID != currentUserID && (claims == nil || claims.Role != models.RoleAdmin) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	if err := h.commentRepository.DeleteComment(commentID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
