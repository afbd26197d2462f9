package models

import "gorm.io/gorm"

// ProjectLike marks that a user has liked a project. The composite unique
// index enforces at most one like per (user, project) pair.
type ProjectLike struct {
	gorm.Model
	UserID    uint `json:"user_id" gorm:"uniqueIndex:idx_project_likes_user_project"`
	ProjectID uint `json:"project_id" gorm:"uniqueIndex:idx_project_likes_user_project"`
}
