package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/services"
	"github.com/soundcircle/soundcircle/utils"
)

// FeedController serves the aggregated subscription feed.
type FeedController struct {
	db       *gorm.DB
	provider services.MusicProvider
}

// NewFeedController creates a new FeedController instance.
func NewFeedController(db *gorm.DB, provider services.MusicProvider) *FeedController {
	return &FeedController{db: db, provider: provider}
}

// GetFeed returns the union of threads across the user's subscribed
// subforums, newest first, each with resolved artwork. Zero subscriptions
// yield an empty list.
func (f *FeedController) GetFeed(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	resolver := services.NewImageResolver(f.provider, getAccessToken(ctx))
	feed, err := services.BuildFeed(ctx.Request.Context(), f.db, resolver, userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to build feed")
		return
	}

	utils.Success(ctx, gin.H{"items": feed})
}
