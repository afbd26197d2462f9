package realtime

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/skillforge-io/backend/internal/middleware"
	"github.com/skillforge-io/backend/internal/models"
	"github.com/skillforge-io/backend/internal/repositories"
)

// ErrAuthentication covers every gate rejection: missing/invalid/expired
// token, unknown user, inactive user.
var ErrAuthentication = errors.New("authentication error")

// Gate authenticates connection attempts before any event handler runs.
// It executes exactly once per handshake; there are no retries.
type Gate struct {
	userRepository repositories.UserRepository
	jwtSecret      string
}

// NewGate creates a connection gate.
func NewGate(userRepo repositories.UserRepository, jwtSecret string) *Gate {
	return &Gate{userRepository: userRepo, jwtSecret: jwtSecret}
}

// Authenticate extracts the bearer token from the handshake request, verifies
// it and resolves the user. The explicit token query parameter is preferred,
// falling back to the Authorization header.
func (g *Gate) Authenticate(r *http.Request) (*models.User, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		token = strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: no token provided", ErrAuthentication)
	}

	claims, err := middleware.ParseToken(token, g.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", ErrAuthentication)
	}

	user, err := g.userRepository.GetUserByID(claims.UserID)
	if err != nil || !user.IsActive {
		return nil, fmt.Errorf("%w: user not found or inactive", ErrAuthentication)
	}

	return user, nil
}

// IdentityFor builds the connection identity from an authenticated user.
func IdentityFor(user *models.User) Identity {
	return Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
		Compact:  user.ToCompact(),
	}
}
