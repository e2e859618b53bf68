package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soundcircle/soundcircle/models"
)

// ErrInvalidVote is returned for vote values other than +1 and -1.
var ErrInvalidVote = errors.New("vote must be 1 or -1")

// VoteState is the resulting state of a (user, thread) pair after a cast.
type VoteState string

const (
	VoteStateNone     VoteState = "none"
	VoteStateLiked    VoteState = "liked"
	VoteStateDisliked VoteState = "disliked"
)

// CastVote applies one vote action and returns the resulting state.
//
// Repeating the current vote removes it; casting the opposite vote switches
// it. Realized as delete-then-upsert inside one transaction: delete any row
// matching the exact (user, thread, vote) triple, and only when nothing was
// deleted upsert the value over whatever row may exist. No prior read of
// current state is needed, and the transaction keeps two concurrent
// identical casts from both toggling off.
func CastVote(db *gorm.DB, userID, threadID uint, vote int) (VoteState, error) {
	if vote != models.VoteLike && vote != models.VoteDislike {
		return VoteStateNone, ErrInvalidVote
	}

	state := VoteStateNone
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND thread_id = ? AND vote = ?", userID, threadID, vote).
			Delete(&models.ThreadVote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			// Toggled off.
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "thread_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote"}),
		}).Create(&models.ThreadVote{UserID: userID, ThreadID: threadID, Vote: vote}).Error; err != nil {
			return err
		}

		if vote == models.VoteLike {
			state = VoteStateLiked
		} else {
			state = VoteStateDisliked
		}
		return nil
	})
	if err != nil {
		return VoteStateNone, err
	}
	return state, nil
}

// Tally returns the aggregate like and dislike counts for a thread. A thread
// with no votes tallies to zeros, never an error.
func Tally(db *gorm.DB, threadID uint) (likes, dislikes int64, err error) {
	if err = db.Model(&models.ThreadVote{}).
		Where("thread_id = ? AND vote = ?", threadID, models.VoteLike).
		Count(&likes).Error; err != nil {
		return 0, 0, err
	}
	if err = db.Model(&models.ThreadVote{}).
		Where("thread_id = ? AND vote = ?", threadID, models.VoteDislike).
		Count(&dislikes).Error; err != nil {
		return 0, 0, err
	}
	return likes, dislikes, nil
}
