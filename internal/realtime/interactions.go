package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/skillforge-io/backend/internal/logger"
	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
	"github.com/skillforge-io/backend/pkg/firebase"
)

// InteractionService processes like, comment and reply events. It is
// stateless across invocations; all state lives in the data store. Every
// handler follows the same shape: validate, verify the parent exists,
// mutate the store, conditionally notify the owner, broadcast to the
// topic room. Failures are reported to the caller only.
type InteractionService struct {
	projects      repositories.ProjectRepository
	likes         repositories.ProjectLikeRepository
	comments      repositories.ProjectCommentRepository
	forum         repositories.ForumRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	broadcaster   Broadcaster
	push          *firebase.App // nil when push delivery is not configured
}

// NewInteractionService creates an InteractionService.
func NewInteractionService(
	projectRepo repositories.ProjectRepository,
	likeRepo repositories.ProjectLikeRepository,
	commentRepo repositories.ProjectCommentRepository,
	forumRepo repositories.ForumRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	broadcaster Broadcaster,
	push *firebase.App,
) *InteractionService {
	return &InteractionService{
		projects:      projectRepo,
		likes:         likeRepo,
		comments:      commentRepo,
		forum:         forumRepo,
		users:         userRepo,
		notifications: notifRepo,
		broadcaster:   broadcaster,
		push:          push,
	}
}

// sendError reports a handler failure to the caller only. Errors are never
// broadcast to rooms.
func sendError(conn *Connection, message string) {
	msg, err := Marshal(EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	conn.Send(msg)
}

// emit marshals and publishes through fn, logging marshal failures.
func emit(fn func([]byte), event string, payload any) {
	msg, err := Marshal(event, payload)
	if err != nil {
		logger.Error("Failed to marshal realtime event", "event", event, "err", err)
		return
	}
	fn(msg)
}

// HandleLike toggles the caller's like on a project and fans out the result.
func (s *InteractionService) HandleLike(ctx context.Context, conn *Connection, data json.RawMessage) {
	var req LikeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sendError(conn, "Invalid payload")
		return
	}

	project, err := s.projects.GetProjectByID(req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendError(conn, "Project not found")
			return
		}
		logger.Error("Project lookup failed", "projectID", req.ProjectID, "err", err)
		sendError(conn, "Failed to like project")
		return
	}

	identity := conn.Identity()
	liked, err := s.likes.ToggleLike(identity.UserID, req.ProjectID)
	if err != nil {
		logger.Error("Project like failed", "projectID", req.ProjectID, "userID", identity.UserID, "err", err)
		sendError(conn, "Failed to like project")
		return
	}

	// Notify the project owner unless they liked their own project
	if project.AuthorID != identity.UserID {
		event := EventProjectLiked
		if !liked {
			event = EventProjectUnliked
		}
		emit(func(msg []byte) { s.broadcaster.ToUser(project.AuthorID, msg) }, event, LikeNotification{
			ProjectID:    project.ID,
			ProjectTitle: project.Title,
			User:         identity.Compact,
		})
		if liked {
			s.persistNotification(ctx, identity.UserID, project.AuthorID, models.NotificationTypeLike,
				"project", project.ID, fmt.Sprintf("liked your project %q", project.Title))
		}
	}

	// Broadcast the counter update to everyone watching the project
	emit(func(msg []byte) { s.broadcaster.ToRoom(ProjectRoom(project.ID), msg) }, EventProjectLikeUpdate, LikeUpdate{
		ProjectID: project.ID,
		Liked:     liked,
	})
}

// HandleComment creates a comment on a project and fans out the result.
func (s *InteractionService) HandleComment(ctx context.Context, conn *Connection, data json.RawMessage) {
	var req CommentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sendError(conn, "Invalid payload")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		sendError(conn, "Comment content is required")
		return
	}

	project, err := s.projects.GetProjectByID(req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendError(conn, "Project not found")
			return
		}
		logger.Error("Project lookup failed", "projectID", req.ProjectID, "err", err)
		sendError(conn, "Failed to add comment")
		return
	}

	identity := conn.Identity()
	comment := &models.ProjectComment{
		ProjectID: req.ProjectID,
		UserID:    identity.UserID,
		Content:   content,
	}
	if err := s.comments.CreateComment(comment); err != nil {
		logger.Error("Project comment failed", "projectID", req.ProjectID, "userID", identity.UserID, "err", err)
		sendError(conn, "Failed to add comment")
		return
	}

	payload := CommentPayload{
		ID:        comment.ID,
		ProjectID: comment.ProjectID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
		User:      identity.Compact,
	}

	if project.AuthorID != identity.UserID {
		emit(func(msg []byte) { s.broadcaster.ToUser(project.AuthorID, msg) }, EventProjectCommented, CommentNotification{
			ProjectID:    project.ID,
			ProjectTitle: project.Title,
			Comment:      payload,
		})
		s.persistNotification(ctx, identity.UserID, project.AuthorID, models.NotificationTypeComment,
			"project", project.ID, fmt.Sprintf("commented on your project %q", project.Title))
	}

	emit(func(msg []byte) { s.broadcaster.ToRoom(ProjectRoom(project.ID), msg) }, EventProjectCommentNew, payload)
}

// HandleReply creates a reply under a forum post and fans out the result.
func (s *InteractionService) HandleReply(ctx context.Context, conn *Connection, data json.RawMessage) {
	var req ReplyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		sendError(conn, "Invalid payload")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		sendError(conn, "Reply content is required")
		return
	}

	post, err := s.forum.GetPostByID(req.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			sendError(conn, "Forum post not found")
			return
		}
		logger.Error("Forum post lookup failed", "postID", req.PostID, "err", err)
		sendError(conn, "Failed to add reply")
		return
	}

	identity := conn.Identity()
	reply := &models.ForumReply{
		PostID:   req.PostID,
		UserID:   identity.UserID,
		Content:  content,
		ParentID: req.ParentID,
	}
	if err := s.forum.CreateReply(reply); err != nil {
		logger.Error("Forum reply failed", "postID", req.PostID, "userID", identity.UserID, "err", err)
		sendError(conn, "Failed to add reply")
		return
	}

	payload := ReplyPayload{
		ID:        reply.ID,
		PostID:    reply.PostID,
		Content:   reply.Content,
		ParentID:  reply.ParentID,
		CreatedAt: reply.CreatedAt.Format(time.RFC3339),
		User:      identity.Compact,
	}

	if post.AuthorID != identity.UserID {
		emit(func(msg []byte) { s.broadcaster.ToUser(post.AuthorID, msg) }, EventForumReplied, ReplyNotification{
			PostID:    post.ID,
			PostTitle: post.Title,
			Reply:     payload,
		})
		s.persistNotification(ctx, identity.UserID, post.AuthorID, models.NotificationTypeReply,
			"forum_post", post.ID, fmt.Sprintf("replied to your post %q", post.Title))
	}

	emit(func(msg []byte) { s.broadcaster.ToRoom(ForumRoom(post.ID), msg) }, EventForumReplyNew, payload)
}

// persistNotification writes the notification row and attempts best-effort
// push delivery. Neither failure reaches the caller.
func (s *InteractionService) persistNotification(ctx context.Context, actorID, recipientID uint, notifType, targetType string, targetID uint, message string) {
	notification := &models.Notification{
		Type:        notifType,
		ActorID:     actorID,
		RecipientID: recipientID,
		TargetID:    strconv.FormatUint(uint64(targetID), 10),
		TargetType:  targetType,
		Message:     message,
	}
	if err := s.notifications.CreateNotification(notification); err != nil {
		logger.Warn("Failed to persist notification", "type", notifType, "err", err)
		return
	}

	if s.push == nil {
		return
	}
	recipient, err := s.users.GetUserByID(recipientID)
	if err != nil || recipient.DeviceToken == "" {
		return
	}
	s.push.SendPush(ctx, recipient.DeviceToken, "SkillForge", message)
}
