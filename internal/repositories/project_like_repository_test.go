package repositories_test

import (
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
)

// newTestDB opens an isolated SQLite database with all relational models
// migrated and a deterministic seed: two users, one project owned by user 1
// and one forum post authored by user 1.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectLike{},
		&models.ProjectComment{},
		&models.ForumPost{},
		&models.ForumReply{},
		&models.Notification{},
	))

	users := []models.User{
		{ID: 1, Username: "owner", Email: "owner@test.com", Password: "x", IsActive: true},
		{ID: 2, Username: "visitor", Email: "visitor@test.com", Password: "x", IsActive: true},
	}
	require.NoError(t, db.Create(&users).Error)
	require.NoError(t, db.Create(&models.Project{ID: 1, Title: "Ray Tracer", AuthorID: 1}).Error)
	require.NoError(t, db.Create(&models.ForumPost{ID: 1, Title: "Slices vs arrays", Content: "What is the difference in practice?", Category: "golang", AuthorID: 1}).Error)

	return db
}

func projectLikes(t *testing.T, db *gorm.DB, projectID uint) int {
	t.Helper()
	var project models.Project
	require.NoError(t, db.First(&project, projectID).Error)
	return project.Likes
}

func TestToggleLikeCreatesAndRemoves(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewPostgresProjectLikeRepository(db)

	liked, err := repo.ToggleLike(2, 1)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, projectLikes(t, db, 1))

	hasLiked, err := repo.HasUserLikedProject(2, 1)
	require.NoError(t, err)
	assert.True(t, hasLiked)

	liked, err = repo.ToggleLike(2, 1)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, projectLikes(t, db, 1))

	hasLiked, err = repo.HasUserLikedProject(2, 1)
	require.NoError(t, err)
	assert.False(t, hasLiked)
}

func TestToggleLikeIsPerUser(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewPostgresProjectLikeRepository(db)

	_, err := repo.ToggleLike(1, 1)
	require.NoError(t, err)
	_, err = repo.ToggleLike(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, projectLikes(t, db, 1))

	// User 2 unliking leaves user 1's like untouched
	_, err = repo.ToggleLike(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, projectLikes(t, db, 1))

	count, err := repo.GetLikesCountByProjectID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCommentCounterFollowsInsertAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewPostgresProjectCommentRepository(db)

	comment := &models.ProjectComment{ProjectID: 1, UserID: 2, Content: "Render looks great"}
	require.NoError(t, repo.CreateComment(comment))

	var project models.Project
	require.NoError(t, db.First(&project, 1).Error)
	assert.Equal(t, 1, project.Comments)

	require.NoError(t, repo.DeleteComment(comment.ID))
	require.NoError(t, db.First(&project, 1).Error)
	assert.Equal(t, 0, project.Comments)
}

func TestReplyCounterFollowsInsertAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewPostgresForumRepository(db)

	reply := &models.ForumReply{PostID: 1, UserID: 2, Content: "Arrays have a fixed length"}
	require.NoError(t, repo.CreateReply(reply))

	var post models.ForumPost
	require.NoError(t, db.First(&post, 1).Error)
	assert.Equal(t, 1, post.Replies)

	require.NoError(t, repo.DeleteReply(reply.ID))
	require.NoError(t, db.First(&post, 1).Error)
	assert.Equal(t, 0, post.Replies)
}

func TestMarkAsReadIsRecipientScoped(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewPostgresNotificationRepository(db)

	notification := &models.Notification{
		Type:        models.NotificationTypeLike,
		ActorID:     2,
		RecipientID: 1,
		TargetID:    "1",
		TargetType:  "project",
		Message:     `liked your project "Ray Tracer"`,
	}
	require.NoError(t, repo.CreateNotification(notification))

	// Another user cannot mark someone else's notification as read
	err := repo.MarkAsRead(notification.ID, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.MarkAsRead(notification.ID, 1))

	unread, err := repo.GetUnreadCount(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}
