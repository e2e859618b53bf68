package models

import "time"

// Subscription links a user to a forum they follow. The composite primary
// key guarantees at most one row per (user, forum) pair.
type Subscription struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ForumID   uint      `gorm:"primaryKey;autoIncrement:false" json:"forum_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the historical table name from the original schema.
func (Subscription) TableName() string {
	return "subforum_subscriptions"
}
