package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/skillforge-io/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// CourseRepository defines the interface for learning-track operations.
// Track and enrollment metadata is relational; lesson content documents
// live in MongoDB.
type CourseRepository interface {
	CreateTrack(track *models.Track) error
	UpdateTrack(track *models.Track) error
	GetTrackByID(id uint) (*models.Track, error)
	GetTracks(level string, page, limit int) ([]models.Track, int64, error)
	CountTracks() (int64, error)

	// EnrollUser creates the enrollment and increments the track's
	// enrollment counter in the same transaction.
	EnrollUser(userID, trackID uint) (*models.Enrollment, error)
	GetEnrollment(userID, trackID uint) (*models.Enrollment, error)
	GetEnrollmentByID(id uint) (*models.Enrollment, error)
	GetEnrollmentsByUserID(userID uint, limit int) ([]models.Enrollment, error)
	UpdateEnrollment(enrollment *models.Enrollment) error

	CreateTrackContent(ctx context.Context, content *models.TrackContent) error
	GetTrackContentByID(ctx context.Context, id string) (*models.TrackContent, error)
}

// HybridCourseRepository implements CourseRepository over PostgreSQL and MongoDB
type HybridCourseRepository struct {
	db         *gorm.DB
	collection *mongo.Collection
}

// NewHybridCourseRepository creates a new HybridCourseRepository. A nil mdb
// leaves the content methods unusable; track and enrollment operations only
// need the relational store.
func NewHybridCourseRepository(db *gorm.DB, mdb *mongo.Database) *HybridCourseRepository {
	r := &HybridCourseRepository{db: db}
	if mdb != nil {
		r.collection = mdb.Collection("track_contents")
	}
	return r
}

// CreateTrack creates a new track in PostgreSQL
func (r *HybridCourseRepository) CreateTrack(track *models.Track) error {
	return r.db.Create(track).Error
}

// UpdateTrack updates an existing track in PostgreSQL
func (r *HybridCourseRepository) UpdateTrack(track *models.Track) error {
	return r.db.Save(track).Error
}

// GetTrackByID retrieves a track by ID from PostgreSQL
func (r *HybridCourseRepository) GetTrackByID(id uint) (*models.Track, error) {
	var track models.Track
	if err := r.db.First(&track, id).Error; err != nil {
		return nil, err
	}
	return &track, nil
}

// GetTracks retrieves tracks with optional level filter and pagination
func (r *HybridCourseRepository) GetTracks(level string, page, limit int) ([]models.Track, int64, error) {
	var tracks []models.Track
	var total int64

	q := r.db.Model(&models.Track{})
	if level != "" {
		q = q.Where("level = ?", level)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&tracks).Error; err != nil {
		return nil, 0, err
	}
	return tracks, total, nil
}

// CountTracks returns the total number of tracks
func (r *HybridCourseRepository) CountTracks() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Track{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// EnrollUser enrolls a user in a track, bumping the counter atomically.
// The composite unique index rejects duplicate enrollments.
func (r *HybridCourseRepository) EnrollUser(userID, trackID uint) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{UserID: userID, TrackID: trackID}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Track{}).Where("id = ?", trackID).
			UpdateColumn("enrollments", gorm.Expr("enrollments + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// GetEnrollment retrieves a user's enrollment in a track
func (r *HybridCourseRepository) GetEnrollment(userID, trackID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.Where("user_id = ? AND track_id = ?", userID, trackID).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetEnrollmentByID retrieves an enrollment by its ID
func (r *HybridCourseRepository) GetEnrollmentByID(id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetEnrollmentsByUserID retrieves a user's enrollments, newest first
func (r *HybridCourseRepository) GetEnrollmentsByUserID(userID uint, limit int) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// UpdateEnrollment updates an enrollment's progress in PostgreSQL
func (r *HybridCourseRepository) UpdateEnrollment(enrollment *models.Enrollment) error {
	return r.db.Save(enrollment).Error
}

// CreateTrackContent stores the lesson content document in MongoDB
func (r *HybridCourseRepository) CreateTrackContent(ctx context.Context, content *models.TrackContent) error {
	content.ID = primitive.NewObjectID()
	content.CreatedAt = time.Now()
	content.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, content)
	return err
}

// GetTrackContentByID retrieves a lesson content document from MongoDB
func (r *HybridCourseRepository) GetTrackContentByID(ctx context.Context, id string) (*models.TrackContent, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid content ID format: %w", err)
	}

	var content models.TrackContent
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&content)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("track content not found")
		}
		return nil, err
	}
	return &content, nil
}
