package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soundcircle/soundcircle/models"
)

// setupTestDB opens an isolated in-memory SQLite database per test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
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

var errProviderDown = errors.New("provider unavailable")

// fakeProvider is a scriptable MusicProvider used instead of the Spotify
// client.
type fakeProvider struct {
	identity    *ExternalIdentity
	identityErr error
	tracks      []TopTrack
	tracksErr   error
	artists     []TopArtist
	artistsErr  error
	// images maps "<type>/<id>" to an artwork URL.
	images     map[string]string
	imageErr   error
	imageCalls int
}

func (f *fakeProvider) CurrentUser(ctx context.Context, accessToken string) (*ExternalIdentity, error) {
	if f.identityErr != nil {
		return nil, f.identityErr
	}
	return f.identity, nil
}

func (f *fakeProvider) TopTracks(ctx context.Context, accessToken string, limit int) ([]TopTrack, error) {
	if f.tracksErr != nil {
		return nil, f.tracksErr
	}
	if len(f.tracks) > limit {
		return f.tracks[:limit], nil
	}
	return f.tracks, nil
}

func (f *fakeProvider) TopArtists(ctx context.Context, accessToken string, limit int) ([]TopArtist, error) {
	if f.artistsErr != nil {
		return nil, f.artistsErr
	}
	if len(f.artists) > limit {
		return f.artists[:limit], nil
	}
	return f.artists, nil
}

func (f *fakeProvider) MediaImage(ctx context.Context, accessToken, mediaType, mediaID string) (string, error) {
	f.imageCalls++
	if f.imageErr != nil {
		return "", f.imageErr
	}
	image, ok := f.images[mediaType+"/"+mediaID]
	if !ok {
		return "", fmt.Errorf("unknown media %s/%s", mediaType, mediaID)
	}
	return image, nil
}
