package models

import "time"

// Notification types
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeReply   = "reply"
)

// Notification represents a persisted user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"` // like, comment, reply
	ActorID     uint      `json:"actor_id" gorm:"index"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	TargetID    string    `json:"target_id"`                  // project ID, forum post ID, etc.
	TargetType  string    `json:"target_type" gorm:"size:20"` // project, forum_post
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
