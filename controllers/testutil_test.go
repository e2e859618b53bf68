package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soundcircle/soundcircle/middleware"
	"github.com/soundcircle/soundcircle/models"
	"github.com/soundcircle/soundcircle/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB opens an isolated in-memory SQLite database per test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ctrl_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Forum{},
		&models.Thread{},
		&models.ThreadComment{},
		&models.Subscription{},
		&models.ThreadVote{},
		&models.PageView{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{
		SpotifyID: "spotify:" + username,
		Username:  username,
		Role:      role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// authAs stands in for the JWT middleware and authenticates every request
// as the given user.
func authAs(user models.User) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, user.ID)
		ctx.Set(middleware.ContextUsernameKey, user.Username)
		ctx.Set(middleware.ContextAccessTokenKey, "test-token")
		ctx.Next()
	}
}

// newTestRouter wires the API routes with the auth middleware replaced, so
// every request runs as the given user.
func newTestRouter(db *gorm.DB, user models.User, provider services.MusicProvider) *gin.Engine {
	r := gin.New()

	forumController := NewForumController(db)
	threadController := NewThreadController(db)
	profileController := NewProfileController(db, provider)
	feedController := NewFeedController(db, provider)
	statsController := NewStatsController(db)

	api := r.Group("/api/v1")
	api.GET("/search/forums", forumController.SearchForums)
	api.GET("/forums/:name", forumController.GetForum)
	api.GET("/threads", threadController.ListRecent)
	api.GET("/threads/:id", threadController.GetThread)
	api.GET("/threads/:id/votes", threadController.GetVotes)
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(authAs(user))
	protected.GET("/profile", profileController.GetProfile)
	protected.PATCH("/profile", profileController.UpdateProfile)
	protected.POST("/forums", forumController.CreateForum)
	protected.POST("/forums/:name/subscribe", forumController.Subscribe)
	protected.POST("/forums/:name/unsubscribe", forumController.Unsubscribe)
	protected.DELETE("/forums/:name", forumController.DeleteForum)
	protected.POST("/forums/:name/threads", threadController.CreateThread)
	protected.PUT("/threads/:id", threadController.UpdateThread)
	protected.DELETE("/threads/:id", threadController.DeleteThread)
	protected.POST("/threads/:id/comments", threadController.CreateComment)
	protected.DELETE("/comments/:commentId", threadController.DeleteComment)
	protected.POST("/threads/:id/vote", threadController.CastVote)
	protected.GET("/feed", feedController.GetFeed)

	return r
}

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

// ctrlFakeProvider is a minimal MusicProvider stand-in for handler tests.
type ctrlFakeProvider struct {
	identity *services.ExternalIdentity
	tracks   []services.TopTrack
	artists  []services.TopArtist
	images   map[string]string
}

func (f *ctrlFakeProvider) CurrentUser(ctx context.Context, accessToken string) (*services.ExternalIdentity, error) {
	if f.identity == nil {
		return nil, fmt.Errorf("no identity configured")
	}
	return f.identity, nil
}

func (f *ctrlFakeProvider) TopTracks(ctx context.Context, accessToken string, limit int) ([]services.TopTrack, error) {
	return f.tracks, nil
}

func (f *ctrlFakeProvider) TopArtists(ctx context.Context, accessToken string, limit int) ([]services.TopArtist, error) {
	return f.artists, nil
}

func (f *ctrlFakeProvider) MediaImage(ctx context.Context, accessToken, mediaType, mediaID string) (string, error) {
	image, ok := f.images[mediaType+"/"+mediaID]
	if !ok {
		return "", fmt.Errorf("unknown media %s/%s", mediaType, mediaID)
	}
	return image, nil
}
