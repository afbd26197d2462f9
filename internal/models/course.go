package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// Track represents a learning track. Relational metadata lives in
// PostgreSQL; the lesson content document lives in MongoDB and is
// referenced by ContentID (ObjectID hex).
type Track struct {
	gorm.Model   `json:"-"`
	ID           uint   `json:"id" gorm:"primaryKey"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Level        string `json:"level" gorm:"size:20;index"` // BEGINNER, INTERMEDIATE, ADVANCED
	Thumbnail    string `json:"thumbnail"`
	InstructorID uint   `json:"instructor_id" gorm:"index"`
	ContentID    string `json:"content_id,omitempty"`
	Enrollments  int    `json:"enrollments" gorm:"default:0"`
}

// Enrollment links a user to a track. The composite unique index keeps
// enrollment idempotent per (user, track) pair.
type Enrollment struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"uniqueIndex:idx_enrollments_user_track"`
	TrackID     uint       `json:"track_id" gorm:"uniqueIndex:idx_enrollments_user_track"`
	Progress    int        `json:"progress" gorm:"default:0"` // percent complete
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TrackContent is the lesson content document stored in MongoDB
type TrackContent struct {
	ID      primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TrackID uint               `json:"track_id" bson:"track_id"`
	Lessons []Lesson           `json:"lessons" bson:"lessons"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Lesson is a single unit of course content inside a track document
type Lesson struct {
	Title    string `json:"title" bson:"title"`
	Body     string `json:"body" bson:"body"`
	VideoURL string `json:"video_url,omitempty" bson:"video_url,omitempty"`
	Duration int    `json:"duration_minutes" bson:"duration_minutes"`
}

// UpdateProgressRequest defines the request body for updating enrollment progress
type UpdateProgressRequest struct {
	Progress int `json:"progress" validate:"gte=0,lte=100"`
}

type CreateTrackRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=100"`
	Description string   `json:"description" validate:"required,min=10,max=2000"`
	Level       string   `json:"level" validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Thumbnail   string   `json:"thumbnail,omitempty" validate:"omitempty,url"`
	Lessons     []Lesson `json:"lessons,omitempty" validate:"omitempty,dive"`
}
