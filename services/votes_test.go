package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundcircle/soundcircle/models"
)

func TestCastVoteTransitions(t *testing.T) {
	tests := []struct {
		name         string
		sequence     []int
		wantState    VoteState
		wantLikes    int64
		wantDislikes int64
	}{
		{"like", []int{1}, VoteStateLiked, 1, 0},
		{"dislike", []int{-1}, VoteStateDisliked, 0, 1},
		{"like toggles off", []int{1, 1}, VoteStateNone, 0, 0},
		{"dislike toggles off", []int{-1, -1}, VoteStateNone, 0, 0},
		{"like then dislike switches", []int{1, -1}, VoteStateDisliked, 0, 1},
		{"dislike then like switches", []int{-1, 1}, VoteStateLiked, 1, 0},
		{"toggle off then like again", []int{1, 1, 1}, VoteStateLiked, 1, 0},
		{"switch then toggle off", []int{1, -1, -1}, VoteStateNone, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)

			var state VoteState
			var err error
			for _, vote := range tt.sequence {
				state, err = CastVote(db, 1, 100, vote)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, state)

			likes, dislikes, err := Tally(db, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLikes, likes)
			assert.Equal(t, tt.wantDislikes, dislikes)
		})
	}
}

func TestCastVoteRejectsInvalidValues(t *testing.T) {
	db := setupTestDB(t)

	for _, vote := range []int{0, 2, -2, 42} {
		_, err := CastVote(db, 1, 100, vote)
		assert.ErrorIs(t, err, ErrInvalidVote, "vote %d", vote)
	}

	// Nothing must have been stored.
	var count int64
	require.NoError(t, db.Model(&models.ThreadVote{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCastVoteKeepsOneRowPerUserAndThread(t *testing.T) {
	db := setupTestDB(t)

	_, err := CastVote(db, 1, 100, models.VoteLike)
	require.NoError(t, err)
	_, err = CastVote(db, 1, 100, models.VoteDislike)
	require.NoError(t, err)

	var rows []models.ThreadVote
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.VoteDislike, rows[0].Vote)
}

func TestTallyZeroForUnvotedThread(t *testing.T) {
	db := setupTestDB(t)

	likes, dislikes, err := Tally(db, 999)
	require.NoError(t, err)
	assert.Zero(t, likes)
	assert.Zero(t, dislikes)
}

func TestTallyCountsAcrossUsersPerThread(t *testing.T) {
	db := setupTestDB(t)

	for userID := uint(1); userID <= 3; userID++ {
		_, err := CastVote(db, userID, 100, models.VoteLike)
		require.NoError(t, err)
	}
	_, err := CastVote(db, 4, 100, models.VoteDislike)
	require.NoError(t, err)
	_, err = CastVote(db, 1, 200, models.VoteDislike)
	require.NoError(t, err)

	likes, dislikes, err := Tally(db, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(3), likes)
	assert.Equal(t, int64(1), dislikes)

	likes, dislikes, err = Tally(db, 200)
	require.NoError(t, err)
	assert.Zero(t, likes)
	assert.Equal(t, int64(1), dislikes)
}
