package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/config"
	"github.com/soundcircle/soundcircle/middleware"
	"github.com/soundcircle/soundcircle/models"
	"github.com/soundcircle/soundcircle/services"
	"github.com/soundcircle/soundcircle/utils"
)

// setAuthTestConfig points Redis at a closed port so the state store and
// token blacklist fall through to their in-memory paths immediately.
func setAuthTestConfig(t *testing.T) {
	t.Helper()
	config.SetForTesting(config.AppConfig{
		JWTSecret:           "auth-test-secret",
		SpotifyClientID:     "client-id",
		SpotifyClientSecret: "client-secret",
		OAuthRedirectBase:   "http://localhost:8080",
		SpotifyScopes:       []string{"user-read-private", "user-top-read"},
		RedisHost:           "127.0.0.1",
		RedisPort:           1,
	})
}

// newTokenServer fakes the OAuth token endpoint for the code exchange.
func newTokenServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newAuthRouter wires the auth routes with the real JWT middleware and the
// controller's OAuth endpoint pointed at the fake token server.
func newAuthRouter(db *gorm.DB, provider services.MusicProvider, tokenURL string) *gin.Engine {
	a := &AuthController{
		db:       db,
		provider: provider,
		endpoint: oauth2.Endpoint{AuthURL: tokenURL + "/authorize", TokenURL: tokenURL + "/token"},
	}

	r := gin.New()
	auth := r.Group("/api/v1/auth")
	auth.GET("/spotify/login", a.Login)
	auth.GET("/spotify/callback", a.Callback)
	auth.POST("/logout", middleware.AuthRequired(), a.Logout)
	auth.GET("/me", middleware.AuthRequired(), a.Me)
	return r
}

func doBearer(t *testing.T, r *gin.Engine, method, path, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func loginState(t *testing.T, r *gin.Engine) string {
	t.Helper()
	rec, env := doJSON(t, r, "GET", "/api/v1/auth/spotify/login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state, _ := env.Data["state"].(string)
	require.NotEmpty(t, state)
	authURL, _ := env.Data["authorization_url"].(string)
	assert.Contains(t, authURL, "state="+state)
	return state
}

func TestSpotifyLoginCallbackFlow(t *testing.T) {
	setAuthTestConfig(t)
	db := setupTestDB(t)
	srv := newTokenServer(t, "spotify-access-token")

	provider := &ctrlFakeProvider{
		identity: &services.ExternalIdentity{SpotifyID: "spotify:alice", DisplayName: "Alice"},
	}
	r := newAuthRouter(db, provider, srv.URL)

	state := loginState(t, r)
	rec, env := doJSON(t, r, "GET",
		fmt.Sprintf("/api/v1/auth/spotify/callback?code=abc&state=%s", state), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	user := env.Data["user"].(map[string]interface{})
	assert.Equal(t, "Alice", user["username"])
	firstID := user["id"].(float64)

	// The issued JWT carries identity and the provider access token.
	token := env.Data["token"].(string)
	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(firstID), claims.UserID)
	assert.Equal(t, "Alice", claims.Username)
	assert.Equal(t, "spotify-access-token", claims.AccessToken)

	// A repeat login resolves to the same local user, not a new row.
	state = loginState(t, r)
	rec, env = doJSON(t, r, "GET",
		fmt.Sprintf("/api/v1/auth/spotify/callback?code=def&state=%s", state), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	again := env.Data["user"].(map[string]interface{})
	assert.Equal(t, firstID, again["id"])

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	setAuthTestConfig(t)
	db := setupTestDB(t)
	srv := newTokenServer(t, "spotify-access-token")

	provider := &ctrlFakeProvider{
		identity: &services.ExternalIdentity{SpotifyID: "spotify:alice", DisplayName: "Alice"},
	}
	r := newAuthRouter(db, provider, srv.URL)

	state := loginState(t, r)
	rec, _ := doJSON(t, r, "GET",
		fmt.Sprintf("/api/v1/auth/spotify/callback?code=abc&state=%s", state), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the consumed state is rejected.
	rec, env := doJSON(t, r, "GET",
		fmt.Sprintf("/api/v1/auth/spotify/callback?code=def&state=%s", state), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40006, env.Code)

	// A state the server never issued is rejected too.
	rec, env = doJSON(t, r, "GET", "/api/v1/auth/spotify/callback?code=abc&state=forged", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40006, env.Code)

	rec, env = doJSON(t, r, "GET", "/api/v1/auth/spotify/callback?code=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40005, env.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	setAuthTestConfig(t)
	db := setupTestDB(t)
	user := seedUser(t, db, "alice", models.RoleMember)
	r := newAuthRouter(db, &ctrlFakeProvider{}, "http://127.0.0.1:1")

	token, err := utils.GenerateToken(user.ID, user.Username, "", time.Hour)
	require.NoError(t, err)

	rec, env := doBearer(t, r, "GET", "/api/v1/auth/me", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", env.Data["username"])

	rec, _ = doBearer(t, r, "POST", "/api/v1/auth/logout", token)
	require.Equal(t, http.StatusOK, rec.Code)

	// The blacklisted token no longer authenticates.
	rec, env = doBearer(t, r, "GET", "/api/v1/auth/me", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 40104, env.Code)
}

func TestAuthRequiredRejectsMalformedBearers(t *testing.T) {
	setAuthTestConfig(t)
	db := setupTestDB(t)
	r := newAuthRouter(db, &ctrlFakeProvider{}, "http://127.0.0.1:1")

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"missing header", "", 40101},
		{"wrong scheme", "Token abc", 40102},
		{"empty token", "Bearer ", 40103},
		{"garbage token", "Bearer not.a.jwt", 40105},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var env envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}
}
