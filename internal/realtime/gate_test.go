package realtime

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
)

const testSecret = "gate-test-secret"

func newGateFixture(t *testing.T) *Gate {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	users := []models.User{
		{ID: 1, Username: "alice", Email: "alice@test.com", Password: "x", IsActive: true},
		{ID: 2, Username: "banned", Email: "banned@test.com", Password: "x", IsActive: true},
	}
	require.NoError(t, db.Create(&users).Error)
	// Explicit update because a zero-valued field with a column default
	// would be dropped from the insert.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", 2).Update("is_active", false).Error)

	return NewGate(repositories.NewPostgresUserRepository(db), testSecret)
}

func signToken(t *testing.T, userID uint, expiresIn time.Duration) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		Email:  "alice@test.com",
		Role:   models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestGateAcceptsTokenQueryParam(t *testing.T) {
	gate := newGateFixture(t)
	req := httptest.NewRequest("GET", "/ws?token="+signToken(t, 1, time.Hour), nil)

	user, err := gate.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestGateAcceptsBearerHeader(t *testing.T) {
	gate := newGateFixture(t)
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 1, time.Hour))

	user, err := gate.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
}

func TestGateRejectsMissingToken(t *testing.T) {
	gate := newGateFixture(t)
	req := httptest.NewRequest("GET", "/ws", nil)

	_, err := gate.Authenticate(req)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestGateRejectsMalformedToken(t *testing.T) {
	gate := newGateFixture(t)
	req := httptest.NewRequest("GET", "/ws?token=not-a-jwt", nil)

	_, err := gate.Authenticate(req)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestGateRejectsExpiredToken(t *testing.T) {
	gate := newGateFixture(t)
	req := httptest.NewRequest("GET", "/ws?token="+signToken(t, 1, -time.Minute), nil)

	_, err := gate.Authenticate(req)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestGateRejectsWrongSignature(t *testing.T) {
	gate := newGateFixture(t)
	claims := &models.JwtCustomClaims{UserID: 1}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/ws?token="+forged, nil)

	_, err = gate.Authenticate(req)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestGateRejectsUnknownUser(t *testing.T) {
	gate := newGateFixture(t)
	req := httptest.NewRequest("GET", "/ws?token="+signToken(t, 99, time.Hour), nil)

	_, err := gate.Authenticate(req)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestGateRejectsInactiveUser(t *testing.T) {
	gate := newGateFixture(t)
	req := httptest.NewRequest("GET", "/ws?token="+signToken(t, 2, time.Hour), nil)

	_, err := gate.Authenticate(req)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestIdentityFor(t *testing.T) {
	user := &models.User{
		ID:       5,
		Username: "alice",
		Email:    "alice@test.com",
		Role:     models.RoleInstructor,
		TotalXP:  1200,
	}
	identity := IdentityFor(user)
	assert.Equal(t, uint(5), identity.UserID)
	assert.Equal(t, models.RoleInstructor, identity.Role)
	assert.Equal(t, 1200, identity.Compact.TotalXP)
}
