package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/skillforge-io/backend/internal/models"
)

// Client -> server events
const (
	EventJoinRoom       = "join:room"
	EventLeaveRoom      = "leave:room"
	EventProjectLike    = "project:like"
	EventProjectComment = "project:comment"
	EventForumReply     = "forum:reply"
	EventTypingStart    = "typing:start"
	EventTypingStop     = "typing:stop"
	EventStatusUpdate   = "status:update"
)

// Server -> client events
const (
	EventError             = "error"
	EventProjectLiked      = "project:liked"
	EventProjectUnliked    = "project:unliked"
	EventProjectLikeUpdate = "project:like:update"
	EventProjectCommented  = "project:commented"
	EventProjectCommentNew = "project:comment:new"
	EventForumReplied      = "forum:replied"
	EventForumReplyNew     = "forum:reply:new"
	EventUserStatus        = "user:status"
	EventUserOffline       = "user:offline"
)

// Room names joined automatically on connect
const (
	RoomGeneral       = "general"
	RoomNotifications = "notifications"
)

// UserRoom is the personal room for owner notifications
func UserRoom(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// ProjectRoom is the topic room for a project's like/comment broadcasts
func ProjectRoom(projectID uint) string {
	return fmt.Sprintf("project:%d", projectID)
}

// ForumRoom is the topic room for a forum post's reply broadcasts
func ForumRoom(postID uint) string {
	return fmt.Sprintf("forum:%d", postID)
}

// TypingRoom is the room typing indicators are relayed to
func TypingRoom(entityType, entityID string) string {
	return fmt.Sprintf("room:%s:%s", entityType, entityID)
}

// Envelope is the wire format for every named event in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Marshal encodes an event and its payload into the wire envelope
func Marshal(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Identity is the authenticated user attached to a connection by the gate
type Identity struct {
	UserID   uint
	Email    string
	Username string
	Role     string
	Compact  models.UserCompact
}

// --- Inbound payloads ---

type LikeRequest struct {
	ProjectID uint `json:"projectId"`
}

type CommentRequest struct {
	ProjectID uint   `json:"projectId"`
	Content   string `json:"content"`
}

type ReplyRequest struct {
	PostID   uint   `json:"postId"`
	Content  string `json:"content"`
	ParentID *uint  `json:"parentId,omitempty"`
}

type TypingRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// --- Outbound payloads ---

type ErrorPayload struct {
	Message string `json:"message"`
}

type LikeNotification struct {
	ProjectID    uint               `json:"projectId"`
	ProjectTitle string             `json:"projectTitle"`
	User         models.UserCompact `json:"user"`
}

type LikeUpdate struct {
	ProjectID uint `json:"projectId"`
	Liked     bool `json:"liked"`
}

type CommentNotification struct {
	ProjectID    uint           `json:"projectId"`
	ProjectTitle string         `json:"projectTitle"`
	Comment      CommentPayload `json:"comment"`
}

type CommentPayload struct {
	ID        uint               `json:"id"`
	ProjectID uint               `json:"project_id"`
	Content   string             `json:"content"`
	CreatedAt string             `json:"created_at"`
	User      models.UserCompact `json:"user"`
}

type ReplyNotification struct {
	PostID    uint         `json:"postId"`
	PostTitle string       `json:"postTitle"`
	Reply     ReplyPayload `json:"reply"`
}

type ReplyPayload struct {
	ID        uint               `json:"id"`
	PostID    uint               `json:"post_id"`
	Content   string             `json:"content"`
	ParentID  *uint              `json:"parent_id,omitempty"`
	CreatedAt string             `json:"created_at"`
	User      models.UserCompact `json:"user"`
}

type TypingPayload struct {
	User models.UserCompact `json:"user"`
	Type string             `json:"type"`
	ID   string             `json:"id"`
}

type StatusPayload struct {
	UserID uint               `json:"userId"`
	User   models.UserCompact `json:"user"`
	Status string             `json:"status,omitempty"`
}
