package models

import "time"

// Thread is a top-level post inside a forum, optionally referencing a
// Spotify track or album by URL.
type Thread struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ForumID     uint      `gorm:"index;not null" json:"forum_id"`
	CreatorID   uint      `gorm:"index;not null" json:"creator_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	SpotifyURL  string    `gorm:"size:512" json:"spotify_url"`
	Description string    `gorm:"type:text" json:"description"`
	IsPinned    bool      `gorm:"not null;default:false" json:"is_pinned"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Creator     User      `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"creator"`
}
