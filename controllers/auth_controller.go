package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/config"
	"github.com/soundcircle/soundcircle/models"
	"github.com/soundcircle/soundcircle/services"
	"github.com/soundcircle/soundcircle/utils"
)

const sessionDuration = 72 * time.Hour

// AuthController handles Spotify OAuth login and session endpoints.
type AuthController struct {
	db       *gorm.DB
	provider services.MusicProvider
	endpoint oauth2.Endpoint
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, provider services.MusicProvider) *AuthController {
	return &AuthController{db: db, provider: provider, endpoint: spotify.Endpoint}
}

func (a *AuthController) oauthConfig() *oauth2.Config {
	cfg := config.Get()
	return &oauth2.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RedirectURL:  fmt.Sprintf("%s/api/v1/auth/spotify/callback", cfg.OAuthRedirectBase),
		Scopes:       cfg.SpotifyScopes,
		Endpoint:     a.endpoint,
	}
}

// Login generates the Spotify authorization URL with a single-use state.
func (a *AuthController) Login(ctx *gin.Context) {
	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	url := a.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// Callback exchanges the authorization code, reconciles the external
// identity against the local user table and issues a JWT session.
func (a *AuthController) Callback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing code or state")
		return
	}

	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid or expired state")
		return
	}

	token, err := a.oauthConfig().Exchange(ctx.Request.Context(), code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}

	identity, err := a.provider.CurrentUser(ctx.Request.Context(), token.AccessToken)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to fetch spotify identity")
		return
	}

	userID, err := services.ResolveOrCreateUser(a.db, identity.SpotifyID, identity.DisplayName)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to persist user")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to load user")
		return
	}

	jwtToken, err := utils.GenerateToken(user.ID, user.Username, token.AccessToken, sessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": jwtToken, "user": user})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(sessionDuration)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's local record.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := currentUser(ctx, a.db)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	utils.Success(ctx, user)
}
