package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PlaceholderImage is served when a thread has no media URL or the artwork
// lookup fails.
const PlaceholderImage = "/static/img/placeholder.png"

// ShortTermWindow is the listening window used for top tracks/artists.
const ShortTermWindow = "short_term"

// ExternalIdentity is the provider-side identity of a logged in user.
type ExternalIdentity struct {
	SpotifyID   string `json:"spotify_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	ProfileURL  string `json:"profile_url"`
}

// TopTrack is one entry of a user's most played tracks.
type TopTrack struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

// TopArtist is one entry of a user's most played artists with its genre tags.
type TopArtist struct {
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

// MusicProvider is the capability boundary to the streaming service. The
// concrete implementation talks to the Spotify Web API; tests substitute a
// fake.
type MusicProvider interface {
	CurrentUser(ctx context.Context, accessToken string) (*ExternalIdentity, error)
	TopTracks(ctx context.Context, accessToken string, limit int) ([]TopTrack, error)
	TopArtists(ctx context.Context, accessToken string, limit int) ([]TopArtist, error)
	MediaImage(ctx context.Context, accessToken, mediaType, mediaID string) (string, error)
}

// SpotifyClient implements MusicProvider against api.spotify.com.
type SpotifyClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyClient creates a client with sane timeouts.
func NewSpotifyClient() *SpotifyClient {
	return &SpotifyClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.spotify.com/v1",
	}
}

// NewSpotifyClientWithBase creates a client against a custom API base URL.
func NewSpotifyClientWithBase(base string) *SpotifyClient {
	c := NewSpotifyClient()
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

func (c *SpotifyClient) getJSON(ctx context.Context, accessToken, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spotify request %s failed: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CurrentUser fetches the authenticated user's profile.
func (c *SpotifyClient) CurrentUser(ctx context.Context, accessToken string) (*ExternalIdentity, error) {
	var payload struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		Images      []struct {
			URL string `json:"url"`
		} `json:"images"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
	}
	if err := c.getJSON(ctx, accessToken, "/me", &payload); err != nil {
		return nil, err
	}

	identity := &ExternalIdentity{
		SpotifyID:   payload.ID,
		DisplayName: payload.DisplayName,
		ProfileURL:  payload.ExternalURLs.Spotify,
	}
	if len(payload.Images) > 0 {
		identity.AvatarURL = payload.Images[0].URL
	}
	return identity, nil
}

// TopTracks fetches the user's most played tracks for the short-term window.
// Only the primary artist of each track is kept.
func (c *SpotifyClient) TopTracks(ctx context.Context, accessToken string, limit int) ([]TopTrack, error) {
	var payload struct {
		Items []struct {
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"items"`
	}
	path := fmt.Sprintf("/me/top/tracks?limit=%d&time_range=%s", limit, ShortTermWindow)
	if err := c.getJSON(ctx, accessToken, path, &payload); err != nil {
		return nil, err
	}

	tracks := make([]TopTrack, 0, len(payload.Items))
	for _, item := range payload.Items {
		track := TopTrack{Name: item.Name}
		if len(item.Artists) > 0 {
			track.Artist = item.Artists[0].Name
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// TopArtists fetches the user's most played artists for the short-term window.
func (c *SpotifyClient) TopArtists(ctx context.Context, accessToken string, limit int) ([]TopArtist, error) {
	var payload struct {
		Items []struct {
			Name   string   `json:"name"`
			Genres []string `json:"genres"`
		} `json:"items"`
	}
	path := fmt.Sprintf("/me/top/artists?limit=%d&time_range=%s", limit, ShortTermWindow)
	if err := c.getJSON(ctx, accessToken, path, &payload); err != nil {
		return nil, err
	}

	artists := make([]TopArtist, 0, len(payload.Items))
	for _, item := range payload.Items {
		artists = append(artists, TopArtist{Name: item.Name, Genres: item.Genres})
	}
	return artists, nil
}

// MediaImage fetches the artwork URL for a track or album by id.
func (c *SpotifyClient) MediaImage(ctx context.Context, accessToken, mediaType, mediaID string) (string, error) {
	switch mediaType {
	case "track":
		var payload struct {
			Album struct {
				Images []struct {
					URL string `json:"url"`
				} `json:"images"`
			} `json:"album"`
		}
		if err := c.getJSON(ctx, accessToken, "/tracks/"+url.PathEscape(mediaID), &payload); err != nil {
			return "", err
		}
		if len(payload.Album.Images) == 0 {
			return "", fmt.Errorf("track %s has no artwork", mediaID)
		}
		return payload.Album.Images[0].URL, nil
	case "album":
		var payload struct {
			Images []struct {
				URL string `json:"url"`
			} `json:"images"`
		}
		if err := c.getJSON(ctx, accessToken, "/albums/"+url.PathEscape(mediaID), &payload); err != nil {
			return "", err
		}
		if len(payload.Images) == 0 {
			return "", fmt.Errorf("album %s has no artwork", mediaID)
		}
		return payload.Images[0].URL, nil
	default:
		return "", fmt.Errorf("unsupported media type: %s", mediaType)
	}
}

// ClassifyMediaURL parses a Spotify share URL and reports whether it points
// at a track or an album, along with the media id. Locale segments such as
// /intl-sv/ are skipped.
func ClassifyMediaURL(raw string) (mediaType, mediaID string, ok bool) {
	if strings.TrimSpace(raw) == "" {
		return "", "", false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, seg := range segments {
		if seg != "track" && seg != "album" {
			continue
		}
		if i+1 >= len(segments) || segments[i+1] == "" {
			return "", "", false
		}
		return seg, segments[i+1], true
	}
	return "", "", false
}

// ImageResolver resolves thread media URLs to artwork, memoizing per
// distinct URL so one feed build never fetches the same media twice.
// A resolver is scoped to one request and is not safe for concurrent use.
type ImageResolver struct {
	provider MusicProvider
	token    string
	memo     map[string]string
}

// NewImageResolver creates a resolver bound to one user's access token.
func NewImageResolver(provider MusicProvider, accessToken string) *ImageResolver {
	return &ImageResolver{
		provider: provider,
		token:    accessToken,
		memo:     map[string]string{},
	}
}

// Resolve returns the artwork URL for a media URL, or the placeholder when
// the URL is absent, unparseable, or the provider lookup fails.
func (r *ImageResolver) Resolve(ctx context.Context, mediaURL string) string {
	if mediaURL == "" {
		return PlaceholderImage
	}
	if cached, hit := r.memo[mediaURL]; hit {
		return cached
	}

	image := PlaceholderImage
	if mediaType, mediaID, ok := ClassifyMediaURL(mediaURL); ok {
		if resolved, err := r.provider.MediaImage(ctx, r.token, mediaType, mediaID); err == nil && resolved != "" {
			image = resolved
		}
	}
	r.memo[mediaURL] = image
	return image
}
