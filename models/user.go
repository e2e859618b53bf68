package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Nothing in the API promotes a user; granting admin is an
// operational concern.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User represents a local forum user backed by a Spotify identity.
// A row is created lazily on first successful login, keyed by SpotifyID.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SpotifyID        string    `gorm:"size:255;uniqueIndex;not null" json:"-"`
	Username         string    `gorm:"size:64;not null" json:"username"`
	Bio              string    `gorm:"type:text" json:"bio"`
	FavoriteTrackURL string    `gorm:"column:spotify_url;size:512" json:"favorite_track_url"`
	Role             string    `gorm:"size:16;not null;default:'member'" json:"role"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BeforeCreate hook ensures timestamps and role are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleMember
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
