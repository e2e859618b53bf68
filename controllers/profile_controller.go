package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/services"
	"github.com/soundcircle/soundcircle/utils"
)

// ProfileController serves the merged profile view and profile edits.
type ProfileController struct {
	db       *gorm.DB
	provider services.MusicProvider
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(db *gorm.DB, provider services.MusicProvider) *ProfileController {
	return &ProfileController{db: db, provider: provider}
}

// GetProfile returns the profile view: local bio and favorite track merged
// with the provider's identity and listening statistics. A failing provider
// degrades the view to local fields only.
func (p *ProfileController) GetProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	view, err := services.BuildProfileView(ctx.Request.Context(), p.db, p.provider, getAccessToken(ctx), userID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to build profile")
		return
	}

	utils.Success(ctx, view)
}

// UpdateProfile sets the user's bio and favorite track URL.
func (p *ProfileController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Bio              string `json:"bio"`
		FavoriteTrackURL string `json:"favorite_track_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	user, ok := currentUser(ctx, p.db)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	user.Bio = utils.Sanitize(req.Bio)
	user.FavoriteTrackURL = strings.TrimSpace(req.FavoriteTrackURL)
	if err := p.db.Save(user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to update profile")
		return
	}

	utils.Success(ctx, user)
}
