package models

import "gorm.io/gorm"

// Project represents a learner-submitted project with denormalized
// like/comment counters mirroring the child record counts.
type Project struct {
	gorm.Model  `json:"-"`
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty" gorm:"size:20;index"` // BEGINNER, INTERMEDIATE, ADVANCED
	Technology  string `json:"technology" gorm:"size:50;index"`
	Thumbnail   string `json:"thumbnail"`
	RepoURL     string `json:"repo_url"`
	DemoURL     string `json:"demo_url"`
	AuthorID    uint   `json:"author_id" gorm:"index"`
	Likes       int    `json:"likes" gorm:"default:0"`
	Comments    int    `json:"comments" gorm:"default:0"`
	Views       int    `json:"views" gorm:"default:0"`
	Featured    bool   `json:"featured" gorm:"default:false;index"`
}

type CreateProjectRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"required,min=10,max=2000"`
	Difficulty  string `json:"difficulty" validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Technology  string `json:"technology" validate:"required,max=50"`
	Thumbnail   string `json:"thumbnail,omitempty" validate:"omitempty,url"`
	RepoURL     string `json:"repo_url,omitempty" validate:"omitempty,url"`
	DemoURL     string `json:"demo_url,omitempty" validate:"omitempty,url"`
}

type UpdateProjectRequest struct {
	Title       string `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,min=10,max=2000"`
	Difficulty  string `json:"difficulty,omitempty" validate:"omitempty,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Technology  string `json:"technology,omitempty" validate:"omitempty,max=50"`
	Thumbnail   string `json:"thumbnail,omitempty" validate:"omitempty,url"`
	RepoURL     string `json:"repo_url,omitempty" validate:"omitempty,url"`
	DemoURL     string `json:"demo_url,omitempty" validate:"omitempty,url"`
}
