package models

import "gorm.io/gorm"

// ForumPost represents a community discussion post with a denormalized
// reply counter.
type ForumPost struct {
	gorm.Model `json:"-"`
	ID         uint   `json:"id" gorm:"primaryKey"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Category   string `json:"category" gorm:"size:50;index"`
	AuthorID   uint   `json:"author_id" gorm:"index"`
	Replies    int    `json:"replies" gorm:"default:0"`
	Views      int    `json:"views" gorm:"default:0"`
	Pinned     bool   `json:"pinned" gorm:"default:false"`
}

// ForumReply is a reply under a forum post; ParentID threads it under
// another reply when set.
type ForumReply struct {
	gorm.Model
	PostID   uint   `json:"post_id" gorm:"index"`
	UserID   uint   `json:"user_id" gorm:"index"`
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id,omitempty" gorm:"index"`
}

type CreateForumPostRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=150"`
	Content  string `json:"content" validate:"required,min=10,max=5000"`
	Category string `json:"category" validate:"required,max=50"`
}

type UpdateForumPostRequest struct {
	Title    string `json:"title,omitempty" validate:"omitempty,min=3,max=150"`
	Content  string `json:"content,omitempty" validate:"omitempty,min=10,max=5000"`
	Category string `json:"category,omitempty" validate:"omitempty,max=50"`
}

type CreateForumReplyRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=2000"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

type UpdateForumReplyRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
