package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/models"
	"github.com/soundcircle/soundcircle/utils"
)

// TopItemLimit bounds the externally fetched top tracks, artists and the
// derived genre list.
const TopItemLimit = 5

// ProfileView merges locally stored profile fields with externally fetched
// listening statistics. When the provider is unreachable the external fields
// stay empty and only the local ones are populated.
type ProfileView struct {
	User       models.User       `json:"user"`
	Identity   *ExternalIdentity `json:"identity,omitempty"`
	TopTracks  []TopTrack        `json:"top_tracks"`
	TopArtists []TopArtist       `json:"top_artists"`
	TopGenres  []string          `json:"top_genres"`
}

// BuildProfileView loads the local user row and enriches it with the
// provider's display identity, top-5 short-term tracks/artists, and up to 5
// genres derived from the top artists' tags. Provider failures degrade the
// view to local fields only; they never fail the profile as a whole.
func BuildProfileView(ctx context.Context, db *gorm.DB, provider MusicProvider, accessToken string, userID uint) (*ProfileView, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, err
	}

	view := &ProfileView{
		User:       user,
		TopTracks:  []TopTrack{},
		TopArtists: []TopArtist{},
		TopGenres:  []string{},
	}

	identity, err := provider.CurrentUser(ctx, accessToken)
	if err != nil {
		return view, nil
	}
	view.Identity = identity

	if tracks, err := provider.TopTracks(ctx, accessToken, TopItemLimit); err == nil {
		view.TopTracks = tracks
	}
	if artists, err := provider.TopArtists(ctx, accessToken, TopItemLimit); err == nil {
		view.TopArtists = artists
		view.TopGenres = DeriveTopGenres(artists)
	}

	return view, nil
}

// DeriveTopGenres flattens the genre tags of the given artists, removes
// duplicates, sorts lexicographically and truncates to TopItemLimit. The
// selection is deliberately not frequency weighted.
func DeriveTopGenres(artists []TopArtist) []string {
	all := []string{}
	for _, artist := range artists {
		for _, g := range artist.Genres {
			if g != "" {
				all = append(all, g)
			}
		}
	}

	genres := utils.UniqueStrings(all)
	sort.Strings(genres)

	if len(genres) > TopItemLimit {
		genres = genres[:TopItemLimit]
	}
	return genres
}
