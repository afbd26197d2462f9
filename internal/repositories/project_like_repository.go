package repositories

import (
	"errors"

	"github.com/skillforge-io/backend/internal/models"
	"gorm.io/gorm"
)

// ProjectLikeRepository defines the interface for like data operations
type ProjectLikeRepository interface {
	// ToggleLike flips the like state of (userID, projectID) and adjusts the
	// project's like counter in the same transaction. Returns the resulting
	// state: true when the call created a like, false when it removed one.
	ToggleLike(userID, projectID uint) (bool, error)
	HasUserLikedProject(userID, projectID uint) (bool, error)
	GetLikesCountByProjectID(projectID uint) (int64, error)
}

// PostgresProjectLikeRepository implements ProjectLikeRepository for PostgreSQL
type PostgresProjectLikeRepository struct {
	db *gorm.DB
}

// NewPostgresProjectLikeRepository creates a new PostgresProjectLikeRepository
func NewPostgresProjectLikeRepository(db *gorm.DB) *PostgresProjectLikeRepository {
	return &PostgresProjectLikeRepository{db: db}
}

// ToggleLike performs the existence check, the like row insert/delete and the
// counter update inside one transaction so the record and the counter can
// never drift apart, and concurrent toggles on the same pair serialize on the
// row instead of racing the read-then-write.
func (r *PostgresProjectLikeRepository) ToggleLike(userID, projectID uint) (bool, error) {
	var liked bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ProjectLike
		err := tx.Where("user_id = ? AND project_id = ?", userID, projectID).First(&existing).Error
		switch {
		case err == nil:
			// Unlike branch
			liked = false
			return r.removeLike(tx, &existing)
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Like branch
			if err := tx.Create(&models.ProjectLike{UserID: userID, ProjectID: projectID}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Project{}).Where("id = ?", projectID).
				UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
				return err
			}
			liked = true
			return nil
		default:
			return err
		}
	})
	return liked, err
}

// removeLike deletes the like row and decrements the project counter only
// when the delete actually removed a row. A concurrent unlike for the same
// pair can win the delete after our read; decrementing for a delete that
// matched nothing would drive the counter negative.
func (r *PostgresProjectLikeRepository) removeLike(tx *gorm.DB, like *models.ProjectLike) error {
	res := tx.Delete(like)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return tx.Model(&models.Project{}).Where("id = ?", like.ProjectID).
		UpdateColumn("likes", gorm.Expr("likes - 1")).Error
}

// HasUserLikedProject checks if a user has liked a specific project
func (r *PostgresProjectLikeRepository) HasUserLikedProject(userID, projectID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.ProjectLike{}).Where("user_id = ? AND project_id = ?", userID, projectID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetLikesCountByProjectID retrieves the count of likes for a specific project
func (r *PostgresProjectLikeRepository) GetLikesCountByProjectID(projectID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.ProjectLike{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
