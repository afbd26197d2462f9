package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/skillforge-io/backend/internal/logger"
	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
)

// ForumHandler handles HTTP requests for community posts and replies
type ForumHandler struct {
	forumRepository        repositories.ForumRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

// NewForumHandler creates a new ForumHandler
func NewForumHandler(forumRepo repositories.ForumRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository) *ForumHandler {
	return &ForumHandler{
		forumRepository:        forumRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterForumRoutes registers community forum routes
func (h *ForumHandler) RegisterForumRoutes(g *echo.Group) {
	g.GET("/community/posts", h.GetPosts)
	g.GET("/community/posts/:id", h.GetPost)
	g.POST("/community/posts", h.CreatePost)
	g.PUT("/community/posts/:id", h.UpdatePost)
	g.DELETE("/community/posts/:id", h.DeletePost)
	g.POST("/community/posts/:id/replies", h.CreateReply)
	g.PUT("/community/replies/:id", h.UpdateReply)
	g.DELETE("/community/replies/:id", h.DeleteReply)
	g.GET("/community/categories", h.GetCategories)
	g.GET("/community/trending", h.GetTrending)
}

// GetPosts lists forum posts with category filter, search and pagination
func (h *ForumHandler) GetPosts(c echo.Context) error {
	page, limit := parsePagination(c)

	posts, total, err := h.forumRepository.GetPosts(c.QueryParam("category"), c.QueryParam("q"), page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": posts},
		"meta":    paginationMeta(page, limit, total),
	})
}

// GetPost retrieves a forum post with its replies and bumps the view counter
func (h *ForumHandler) GetPost(c echo.Context) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.forumRepository.GetPostByID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Forum post not found")
	}

	replies, err := h.forumRepository.GetRepliesByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go h.forumRepository.IncrementPostViews(postID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"post": post, "replies": replies},
	})
}

// CreatePost creates a new forum post
func (h *ForumHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateForumPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post := &models.ForumPost{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		AuthorID: currentUserID,
	}

	if err := h.forumRepository.CreatePost(post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, post)
}

// UpdatePost updates a forum post owned by the authenticated user
func (h *ForumHandler) UpdatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	var req models.UpdateForumPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.forumRepository.GetPostByID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Forum post not found")
	}

	if post.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this post")
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Content != "" {
		post.Content = req.Content
	}
	if req.Category != "" {
		post.Category = req.Category
	}

	if err := h.forumRepository.UpdatePost(post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a forum post; the author or an admin may delete
func (h *ForumHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.forumRepository.GetPostByID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Forum post not found")
	}

	claims := getUserClaimsFromContext(c)
	if post.AuthorID != currentUserID && (claims == nil || claims.Role != models.RoleAdmin) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if err := h.forumRepository.DeletePost(postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// CreateReply creates a reply under a forum post, optionally threaded
// under a parent reply
func (h *ForumHandler) CreateReply(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	var req models.CreateForumReplyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Reply content is required")
	}

	post, err := h.forumRepository.GetPostByID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Forum post not found")
	}

	reply := &models.ForumReply{
		PostID:   postID,
		UserID:   currentUserID,
		Content:  strings.TrimSpace(req.Content),
		ParentID: req.ParentID,
	}

	if err := h.forumRepository.CreateReply(reply); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if post.AuthorID != currentUserID {
		notification := &models.Notification{
			Type:        models.NotificationTypeReply,
			ActorID:     currentUserID,
			RecipientID: post.AuthorID,
			TargetID:    strconv.FormatUint(uint64(postID), 10),
			TargetType:  "forum_post",
			Message:     fmt.Sprintf("replied to your post %q", post.Title),
		}
		if err := h.notificationRepository.CreateNotification(notification); err != nil {
			logger.Warn("Failed to persist reply notification", "err", err)
		}
	}

	return c.JSON(http.StatusCreated, reply)
}

// UpdateReply updates a reply owned by the authenticated user
func (h *ForumHandler) UpdateReply(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	replyID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid reply ID")
	}

	var req models.UpdateForumReplyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Reply content is required")
	}

	reply, err := h.forumRepository.GetReplyByID(replyID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Reply not found")
	}

	if reply.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this reply")
	}

	reply.Content = strings.TrimSpace(req.Content)
	if err := h.forumRepository.UpdateReply(reply); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, reply)
}

// DeleteReply deletes a reply owned by the authenticated user
func (h *ForumHandler) DeleteReply(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	replyID, err := parseIDParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid reply ID")
	}

	reply, err := h.forumRepository.GetReplyByID(replyID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Reply not found")
	}

	claims := getUserClaimsFromContext(c)
	if reply.UserID != currentUserID && (claims == nil || claims.Role != models.RoleAdmin) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this reply")
	}

	if err := h.forumRepository.DeleteReply(replyID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// GetCategories returns post counts grouped by category
func (h *ForumHandler) GetCategories(c echo.Context) error {
	categories, err := h.forumRepository.GetCategories()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"categories": categories}})
}

// GetTrending returns the most-replied posts from the last week
func (h *ForumHandler) GetTrending(c echo.Context) error {
	posts, err := h.forumRepository.GetTrendingPosts(time.Now().AddDate(0, 0, -7), 10)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": posts}})
}
