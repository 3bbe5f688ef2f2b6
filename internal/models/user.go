package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is a user's privilege level. Unknown values stored in the database
// (bad imports, removed roles) decode to RoleUser instead of failing the row.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts a raw string to a Role, falling back to RoleUser on
// unrecognized input.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s)
	default:
		return RoleUser
	}
}

// Scan implements sql.Scanner so roles read from the database go through
// the same fallback as ParseRole.
func (r *Role) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*r = ParseRole(v)
	case []byte:
		*r = ParseRole(string(v))
	default:
		*r = RoleUser
	}
	return nil
}

// User represents a Loomline account
type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Handle      string `gorm:"uniqueIndex;not null" json:"handle"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Bio         string `gorm:"type:text" json:"bio"`
	AvatarURL   string `json:"avatar_url"`

	// Native auth fields
	PasswordHash string `gorm:"type:text;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(16);default:user" json:"role"`

	// Two-factor auth (TOTP)
	TwoFactorEnabled bool    `gorm:"default:false" json:"two_factor_enabled"`
	TwoFactorSecret  *string `gorm:"type:text" json:"-"`

	// Denormalized social counters
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	ThreadCount    int `gorm:"default:0" json:"thread_count"`

	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user has administrator privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicProfile is the author shape embedded in thread and comment
// responses. IsFollowed is filled in by callers that know the viewer.
type PublicProfile struct {
	ID          uint   `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	IsFollowed  bool   `json:"is_followed"`
}

// Public returns the externally visible author representation.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}
