package models

// Vote values. Absence of a row means "no vote"; the value is never 0.
const (
	VoteLike    = 1
	VoteDislike = -1
)

// ThreadVote records a user's single active vote on a thread. The composite
// primary key guarantees at most one row per (user, thread) pair.
type ThreadVote struct {
	UserID   uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ThreadID uint `gorm:"primaryKey;autoIncrement:false" json:"thread_id"`
	Vote     int  `gorm:"not null" json:"vote"`
}

// TableName keeps the historical table name from the original schema.
func (ThreadVote) TableName() string {
	return "likes"
}
