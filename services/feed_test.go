package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/models"
)

func seedFeedUser(t *testing.T, db *gorm.DB, spotifyID, username string) models.User {
	t.Helper()
	user := models.User{SpotifyID: spotifyID, Username: username, Role: models.RoleMember}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedForum(t *testing.T, db *gorm.DB, name string, creatorID uint) models.Forum {
	t.Helper()
	forum := models.Forum{Name: name, CreatorID: creatorID}
	require.NoError(t, db.Create(&forum).Error)
	return forum
}

func seedThread(t *testing.T, db *gorm.DB, forumID, creatorID uint, title, mediaURL string, createdAt time.Time) models.Thread {
	t.Helper()
	thread := models.Thread{
		ForumID:    forumID,
		CreatorID:  creatorID,
		Title:      title,
		SpotifyURL: mediaURL,
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Create(&thread).Error)
	return thread
}

func TestBuildFeedEmptyWithoutSubscriptions(t *testing.T) {
	db := setupTestDB(t)
	user := seedFeedUser(t, db, "spotify:alice", "Alice")
	forum := seedForum(t, db, "Jazz", user.ID)
	seedThread(t, db, forum.ID, user.ID, "Kind of Blue", "", time.Now())

	resolver := NewImageResolver(&fakeProvider{}, "token")
	feed, err := BuildFeed(context.Background(), db, resolver, user.ID)
	require.NoError(t, err)
	require.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestBuildFeedUnionNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	alice := seedFeedUser(t, db, "spotify:alice", "Alice")
	bob := seedFeedUser(t, db, "spotify:bob", "Bob")

	jazz := seedForum(t, db, "Jazz", alice.ID)
	rock := seedForum(t, db, "Rock", alice.ID)
	metal := seedForum(t, db, "Metal", alice.ID)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	oldest := seedThread(t, db, jazz.ID, alice.ID, "So What", "", base)
	middle := seedThread(t, db, rock.ID, bob.ID, "Paranoid Android", "", base.Add(time.Hour))
	newest := seedThread(t, db, jazz.ID, bob.ID, "Giant Steps", "", base.Add(2*time.Hour))
	seedThread(t, db, metal.ID, alice.ID, "Unsubscribed", "", base.Add(3*time.Hour))

	require.NoError(t, db.Create(&models.Subscription{UserID: alice.ID, ForumID: jazz.ID}).Error)
	require.NoError(t, db.Create(&models.Subscription{UserID: alice.ID, ForumID: rock.ID}).Error)

	resolver := NewImageResolver(&fakeProvider{}, "token")
	feed, err := BuildFeed(context.Background(), db, resolver, alice.ID)
	require.NoError(t, err)
	require.Len(t, feed, 3)

	assert.Equal(t, newest.ID, feed[0].ID)
	assert.Equal(t, middle.ID, feed[1].ID)
	assert.Equal(t, oldest.ID, feed[2].ID)

	assert.Equal(t, "Bob", feed[0].Username)
	assert.Equal(t, "Alice", feed[2].Username)
	assert.Equal(t, jazz.ID, feed[0].ForumID)
}

func TestBuildFeedResolvesArtworkWithPlaceholderFallback(t *testing.T) {
	db := setupTestDB(t)
	user := seedFeedUser(t, db, "spotify:alice", "Alice")
	forum := seedForum(t, db, "Jazz", user.ID)
	require.NoError(t, db.Create(&models.Subscription{UserID: user.ID, ForumID: forum.ID}).Error)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedThread(t, db, forum.ID, user.ID, "No link", "", base)
	seedThread(t, db, forum.ID, user.ID, "Bad link", "https://example.com/not-media", base.Add(time.Minute))
	seedThread(t, db, forum.ID, user.ID, "Good link",
		"https://open.spotify.com/track/4vLYewWIvqHfKtJDk8c8tq", base.Add(2*time.Minute))

	provider := &fakeProvider{images: map[string]string{
		"track/4vLYewWIvqHfKtJDk8c8tq": "https://img.example.com/cover.jpg",
	}}
	resolver := NewImageResolver(provider, "token")

	feed, err := BuildFeed(context.Background(), db, resolver, user.ID)
	require.NoError(t, err)
	require.Len(t, feed, 3)

	assert.Equal(t, "https://img.example.com/cover.jpg", feed[0].ImageURL)
	assert.Equal(t, PlaceholderImage, feed[1].ImageURL)
	assert.Equal(t, PlaceholderImage, feed[2].ImageURL)
}

func TestBuildFeedMemoizesArtworkLookups(t *testing.T) {
	db := setupTestDB(t)
	user := seedFeedUser(t, db, "spotify:alice", "Alice")
	forum := seedForum(t, db, "Jazz", user.ID)
	require.NoError(t, db.Create(&models.Subscription{UserID: user.ID, ForumID: forum.ID}).Error)

	shared := "https://open.spotify.com/album/2guirTSEqLizK7j9i1MTTZ"
	distinct := "https://open.spotify.com/track/4vLYewWIvqHfKtJDk8c8tq"
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedThread(t, db, forum.ID, user.ID, "A", shared, base)
	seedThread(t, db, forum.ID, user.ID, "B", shared, base.Add(time.Minute))
	seedThread(t, db, forum.ID, user.ID, "C", distinct, base.Add(2*time.Minute))

	provider := &fakeProvider{images: map[string]string{
		"album/2guirTSEqLizK7j9i1MTTZ": "https://img.example.com/album.jpg",
		"track/4vLYewWIvqHfKtJDk8c8tq": "https://img.example.com/track.jpg",
	}}
	resolver := NewImageResolver(provider, "token")

	feed, err := BuildFeed(context.Background(), db, resolver, user.ID)
	require.NoError(t, err)
	require.Len(t, feed, 3)

	// Two distinct media URLs mean exactly two provider calls.
	assert.Equal(t, 2, provider.imageCalls)
}
