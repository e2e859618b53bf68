package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/middleware"
	"github.com/soundcircle/soundcircle/models"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func getAccessToken(ctx *gin.Context) string {
	value, exists := ctx.Get(middleware.ContextAccessTokenKey)
	if !exists {
		return ""
	}
	token, _ := value.(string)
	return token
}

// currentUser loads the authenticated user's row. Role checks need the row,
// not just the JWT claims, so revoked admins lose rights immediately.
func currentUser(ctx *gin.Context, db *gorm.DB) (*models.User, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, false
	}
	return &user, true
}
