package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/models"
)

// FeedThread is one feed entry: a thread joined with its author name and a
// resolved artwork image.
type FeedThread struct {
	ID          uint   `json:"id"`
	ForumID     uint   `json:"forum_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SpotifyURL  string `json:"spotify_url"`
	CreatedAt   int64  `json:"created_at"`
	Username    string `json:"username"`
	ImageURL    string `json:"image_url"`
}

// BuildFeed assembles the subscription feed for a user: the union of threads
// across every forum the user follows, newest first, each entry carrying
// resolved artwork. A user with zero subscriptions gets an empty feed, not
// an error.
//
// Artwork lookup is one provider call per distinct media URL (memoized by
// the resolver); no cross-request batching or caching is attempted at this
// traffic scale.
func BuildFeed(ctx context.Context, db *gorm.DB, resolver *ImageResolver, userID uint) ([]FeedThread, error) {
	var forumIDs []uint
	if err := db.Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Pluck("forum_id", &forumIDs).Error; err != nil {
		return nil, err
	}
	if len(forumIDs) == 0 {
		return []FeedThread{}, nil
	}

	// A thread belongs to exactly one forum, so the per-forum union needs no
	// de-duplication.
	var threads []models.Thread
	if err := db.Preload("Creator").
		Where("forum_id IN ?", forumIDs).
		Find(&threads).Error; err != nil {
		return nil, err
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})

	feed := make([]FeedThread, 0, len(threads))
	for _, t := range threads {
		feed = append(feed, FeedThread{
			ID:          t.ID,
			ForumID:     t.ForumID,
			Title:       t.Title,
			Description: t.Description,
			SpotifyURL:  t.SpotifyURL,
			CreatedAt:   t.CreatedAt.Unix(),
			Username:    t.Creator.Username,
			ImageURL:    resolver.Resolve(ctx, t.SpotifyURL),
		})
	}
	return feed, nil
}
