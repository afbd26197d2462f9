package repositories

import (
	"github.com/skillforge-io/backend/internal/models"
	"gorm.io/gorm"
)

// ProjectFilter narrows project listings; zero values mean "no filter".
type ProjectFilter struct {
	Technology string
	Difficulty string
	Search     string
	AuthorID   uint
}

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	CreateProject(project *models.Project) error
	GetProjectByID(id uint) (*models.Project, error)
	GetProjects(filter ProjectFilter, page, limit int) ([]models.Project, int64, error)
	GetFeaturedProjects(limit int) ([]models.Project, error)
	GetRecentProjectsByAuthor(authorID uint, limit int) ([]models.Project, error)
	UpdateProject(project *models.Project) error
	DeleteProject(id uint) error
	IncrementViews(id uint) error
	CountProjects() (int64, error)
}

// PostgresProjectRepository implements ProjectRepository for PostgreSQL
type PostgresProjectRepository struct {
	db *gorm.DB
}

// NewPostgresProjectRepository creates a new PostgresProjectRepository
func NewPostgresProjectRepository(db *gorm.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{db: db}
}

// CreateProject creates a new project in PostgreSQL
func (r *PostgresProjectRepository) CreateProject(project *models.Project) error {
	return r.db.Create(project).Error
}

// GetProjectByID retrieves a project by ID from PostgreSQL
func (r *PostgresProjectRepository) GetProjectByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProjects retrieves projects with filters and offset pagination,
// newest first, returning the page and the total match count.
func (r *PostgresProjectRepository) GetProjects(filter ProjectFilter, page, limit int) ([]models.Project, int64, error) {
	var projects []models.Project
	var total int64

	q := r.db.Model(&models.Project{})
	if filter.Technology != "" {
		q = q.Where("technology = ?", filter.Technology)
	}
	if filter.Difficulty != "" {
		q = q.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.AuthorID != 0 {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// GetFeaturedProjects retrieves featured projects ordered by like count
func (r *PostgresProjectRepository) GetFeaturedProjects(limit int) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.Where("featured = ?", true).Order("likes DESC").Limit(limit).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// GetRecentProjectsByAuthor retrieves the author's newest projects
func (r *PostgresProjectRepository) GetRecentProjectsByAuthor(authorID uint, limit int) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.Where("author_id = ?", authorID).Order("created_at DESC").Limit(limit).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProject updates an existing project in PostgreSQL
func (r *PostgresProjectRepository) UpdateProject(project *models.Project) error {
	return r.db.Save(project).Error
}

// DeleteProject deletes a project by ID from PostgreSQL
func (r *PostgresProjectRepository) DeleteProject(id uint) error {
	return r.db.Delete(&models.Project{}, id).Error
}

// IncrementViews bumps the view counter with an atomic column expression
func (r *PostgresProjectRepository) IncrementViews(id uint) error {
	return r.db.Model(&models.Project{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// CountProjects returns the total number of projects
func (r *PostgresProjectRepository) CountProjects() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Project{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
