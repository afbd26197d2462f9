package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User roles used by role-based route guards.
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

type User struct {
	gorm.Model   `json:"-"`
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"uniqueIndex"`
	Email        string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password     string `json:"-"`                        // Store hashed password, ignore for JSON serialization
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Avatar       string `json:"avatar"`
	Bio          string `json:"bio"`
	Role         string `json:"role" gorm:"size:20;default:STUDENT"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
	TotalXP      int    `json:"total_xp" gorm:"default:0"`
	CurrentLevel int    `json:"current_level" gorm:"default:1"`
	DeviceToken  string `json:"-"` // FCM registration token, empty when push is not set up
}

// UserCompact is the trimmed user representation embedded in comments,
// replies, notifications and realtime payloads.
type UserCompact struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Avatar       string `json:"avatar"`
	TotalXP      int    `json:"total_xp"`
	CurrentLevel int    `json:"current_level"`
}

// ToCompact converts a full user record into its compact representation.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Avatar:       u.Avatar,
		TotalXP:      u.TotalXP,
		CurrentLevel: u.CurrentLevel,
	}
}

type RegisterUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"omitempty,max=50"`
	LastName  string `json:"last_name" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Avatar    string `json:"avatar,omitempty" validate:"omitempty,url"`
	Bio       string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
