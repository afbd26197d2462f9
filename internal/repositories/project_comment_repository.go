package repositories

import (
	"github.com/skillforge-io/backend/internal/models"
	"gorm.io/gorm"
)

// ProjectCommentRepository defines the interface for comment data operations
type ProjectCommentRepository interface {
	// CreateComment inserts the comment and increments the project's comment
	// counter in the same transaction.
	CreateComment(comment *models.ProjectComment) error
	GetCommentByID(id uint) (*models.ProjectComment, error)
	GetCommentsByProjectID(projectID uint, page, limit int) ([]models.ProjectComment, int64, error)
	UpdateComment(comment *models.ProjectComment) error
	// DeleteComment removes the comment and decrements the counter together.
	DeleteComment(id uint) error
}

// PostgresProjectCommentRepository implements ProjectCommentRepository for PostgreSQL
type PostgresProjectCommentRepository struct {
	db *gorm.DB
}

// NewPostgresProjectCommentRepository creates a new PostgresProjectCommentRepository
func NewPostgresProjectCommentRepository(db *gorm.DB) *PostgresProjectCommentRepository {
	return &PostgresProjectCommentRepository{db: db}
}

// CreateComment creates a comment and bumps the project counter atomically
func (r *PostgresProjectCommentRepository) CreateComment(comment *models.ProjectComment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).Where("id = ?", comment.ProjectID).
			UpdateColumn("comments", gorm.Expr("comments + 1")).Error
	})
}

// GetCommentByID retrieves a comment by ID from PostgreSQL
func (r *PostgresProjectCommentRepository) GetCommentByID(id uint) (*models.ProjectComment, error) {
	var comment models.ProjectComment
	if err := r.db.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByProjectID retrieves comments for a project, newest first
func (r *PostgresProjectCommentRepository) GetCommentsByProjectID(projectID uint, page, limit int) ([]models.ProjectComment, int64, error) {
	var comments []models.ProjectComment
	var total int64

	q := r.db.Model(&models.ProjectComment{}).Where("project_id = ?", projectID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// UpdateComment updates an existing comment in PostgreSQL
func (r *PostgresProjectCommentRepository) UpdateComment(comment *models.ProjectComment) error {
	return r.db.Save(comment).Error
}

// DeleteComment deletes a comment and decrements the project counter
func (r *PostgresProjectCommentRepository) DeleteComment(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var comment models.ProjectComment
		if err := tx.First(&comment, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).Where("id = ?", comment.ProjectID).
			UpdateColumn("comments", gorm.Expr("comments - 1")).Error
	})
}
