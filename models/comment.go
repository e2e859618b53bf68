package models

import "time"

// ThreadComment is a reply to a thread. Comments are append-only and are
// displayed in created_at ascending order.
type ThreadComment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ThreadID    uint      `gorm:"index;not null" json:"thread_id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	SpotifyURL  string    `gorm:"size:512" json:"spotify_url"`
	CreatedAt   time.Time `json:"created_at"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
}

// TableName keeps the historical table name from the original schema.
func (ThreadComment) TableName() string {
	return "t_comments"
}
