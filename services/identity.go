package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/models"
)

// DefaultDisplayName substitutes for providers that omit a display name.
const DefaultDisplayName = "Anonymous"

// ResolveOrCreateUser maps an external Spotify identity to a local user row,
// creating it on first login. The returned id is stable across logins; the
// stored username is never refreshed afterwards so locally edited profile
// fields stay authoritative.
//
// Two concurrent first logins can race to insert the same spotify_id. The
// unique constraint rejects the loser, which then re-queries and returns the
// winner's row, so N parallel calls always converge on one user.
func ResolveOrCreateUser(db *gorm.DB, spotifyID, displayName string) (uint, error) {
	spotifyID = strings.TrimSpace(spotifyID)
	if spotifyID == "" {
		return 0, errors.New("external id cannot be empty")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = DefaultDisplayName
	}

	var user models.User
	err := db.Where("spotify_id = ?", spotifyID).First(&user).Error
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	user = models.User{
		SpotifyID: spotifyID,
		Username:  displayName,
		Role:      models.RoleMember,
	}
	if createErr := db.Create(&user).Error; createErr != nil {
		// Lost an insert race or hit another constraint error; either way a
		// concurrent writer may own the row now.
		var winner models.User
		if requeryErr := db.Where("spotify_id = ?", spotifyID).First(&winner).Error; requeryErr == nil {
			return winner.ID, nil
		}
		return 0, createErr
	}

	return user.ID, nil
}
