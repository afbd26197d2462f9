package models

import "gorm.io/gorm"

// ProjectComment represents a comment on a project
type ProjectComment struct {
	gorm.Model
	ProjectID uint   `json:"project_id" gorm:"index"`
	UserID    uint   `json:"user_id" gorm:"index"`
	Content   string `json:"content" validate:"required,min=1,max=500"`
}

// CreateProjectCommentRequest defines the request body for commenting on a project
type CreateProjectCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// UpdateProjectCommentRequest defines the request body for editing a comment
type UpdateProjectCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
