package repositories

import (
	"time"

	"github.com/skillforge-io/backend/internal/models"
	"gorm.io/gorm"
)

// CategoryCount is a per-category post tally for the categories endpoint
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ForumRepository defines the interface for forum data operations
type ForumRepository interface {
	CreatePost(post *models.ForumPost) error
	GetPostByID(id uint) (*models.ForumPost, error)
	GetPosts(category, search string, page, limit int) ([]models.ForumPost, int64, error)
	UpdatePost(post *models.ForumPost) error
	DeletePost(id uint) error
	IncrementPostViews(id uint) error
	GetCategories() ([]CategoryCount, error)
	GetTrendingPosts(since time.Time, limit int) ([]models.ForumPost, error)
	CountPosts() (int64, error)

	// CreateReply inserts the reply and increments the post's reply counter
	// in the same transaction.
	CreateReply(reply *models.ForumReply) error
	GetReplyByID(id uint) (*models.ForumReply, error)
	GetRepliesByPostID(postID uint) ([]models.ForumReply, error)
	UpdateReply(reply *models.ForumReply) error
	// DeleteReply removes the reply and decrements the counter together.
	DeleteReply(id uint) error
}

// PostgresForumRepository implements ForumRepository for PostgreSQL
type PostgresForumRepository struct {
	db *gorm.DB
}

// NewPostgresForumRepository creates a new PostgresForumRepository
func NewPostgresForumRepository(db *gorm.DB) *PostgresForumRepository {
	return &PostgresForumRepository{db: db}
}

// CreatePost creates a new forum post in PostgreSQL
func (r *PostgresForumRepository) CreatePost(post *models.ForumPost) error {
	return r.db.Create(post).Error
}

// GetPostByID retrieves a forum post by ID from PostgreSQL
func (r *PostgresForumRepository) GetPostByID(id uint) (*models.ForumPost, error) {
	var post models.ForumPost
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPosts retrieves forum posts with optional category filter and substring
// search, pinned posts first, then newest first.
func (r *PostgresForumRepository) GetPosts(category, search string, page, limit int) ([]models.ForumPost, int64, error) {
	var posts []models.ForumPost
	var total int64

	q := r.db.Model(&models.ForumPost{})
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if search != "" {
		pattern := "%" + search + "%"
		q = q.Where("LOWER(title) LIKE LOWER(?) OR LOWER(content) LIKE LOWER(?)", pattern, pattern)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("pinned DESC, created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdatePost updates an existing forum post in PostgreSQL
func (r *PostgresForumRepository) UpdatePost(post *models.ForumPost) error {
	return r.db.Save(post).Error
}

// DeletePost deletes a forum post and its replies
func (r *PostgresForumRepository) DeletePost(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.ForumReply{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ForumPost{}, id).Error
	})
}

// IncrementPostViews bumps the view counter with an atomic column expression
func (r *PostgresForumRepository) IncrementPostViews(id uint) error {
	return r.db.Model(&models.ForumPost{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// GetCategories returns post counts grouped by category
func (r *PostgresForumRepository) GetCategories() ([]CategoryCount, error) {
	var categories []CategoryCount
	err := r.db.Model(&models.ForumPost{}).
		Select("category, COUNT(*) as count").
		Group("category").
		Order("count DESC").
		Scan(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GetTrendingPosts returns the most-replied posts created since the cutoff
func (r *PostgresForumRepository) GetTrendingPosts(since time.Time, limit int) ([]models.ForumPost, error) {
	var posts []models.ForumPost
	if err := r.db.Where("created_at >= ?", since).Order("replies DESC").Limit(limit).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// CountPosts returns the total number of forum posts
func (r *PostgresForumRepository) CountPosts() (int64, error) {
	var count int64
	if err := r.db.Model(&models.ForumPost{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateReply creates a reply and bumps the post counter atomically
func (r *PostgresForumRepository) CreateReply(reply *models.ForumReply) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.ForumPost{}).Where("id = ?", reply.PostID).
			UpdateColumn("replies", gorm.Expr("replies + 1")).Error
	})
}

// GetReplyByID retrieves a reply by ID from PostgreSQL
func (r *PostgresForumRepository) GetReplyByID(id uint) (*models.ForumReply, error) {
	var reply models.ForumReply
	if err := r.db.First(&reply, id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

// GetRepliesByPostID retrieves all replies for a post, oldest first
func (r *PostgresForumRepository) GetRepliesByPostID(postID uint) ([]models.ForumReply, error) {
	var replies []models.ForumReply
	if err := r.db.Where("post_id = ?", postID).Order("created_at ASC").Find(&replies).Error; err != nil {
		return nil, err
	}
	return replies, nil
}

// UpdateReply updates an existing reply in PostgreSQL
func (r *PostgresForumRepository) UpdateReply(reply *models.ForumReply) error {
	return r.db.Save(reply).Error
}

// DeleteReply deletes a reply and decrements the post counter
func (r *PostgresForumRepository) DeleteReply(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var reply models.ForumReply
		if err := tx.First(&reply, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.ForumPost{}).Where("id = ?", reply.PostID).
			UpdateColumn("replies", gorm.Expr("replies - 1")).Error
	})
}
