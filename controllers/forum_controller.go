package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soundcircle/soundcircle/models"
	"github.com/soundcircle/soundcircle/utils"
)

// ForumController manages subforums and subscriptions.
type ForumController struct {
	db *gorm.DB
}

// NewForumController creates a new ForumController instance.
func NewForumController(db *gorm.DB) *ForumController {
	return &ForumController{db: db}
}

// CreateForum allows authenticated users to create a subforum. Names are
// unique under an exact compare; a duplicate is rejected with a conflict,
// never overwritten.
func (f *ForumController) CreateForum(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "name cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	forum := models.Forum{
		Name:        name,
		Description: utils.Sanitize(req.Description),
		CreatorID:   userID,
	}
	if err := f.db.Create(&forum).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || forumNameTaken(f.db, name) {
			utils.Error(ctx, http.StatusConflict, 40902, "a subforum with this name already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create subforum")
		return
	}

	utils.Success(ctx, gin.H{"forum": forum})
}

func forumNameTaken(db *gorm.DB, name string) bool {
	var count int64
	if err := db.Model(&models.Forum{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// GetForum returns a subforum and its threads, newest first, with creator
// usernames joined in.
func (f *ForumController) GetForum(ctx *gin.Context) {
	name := ctx.Param("name")

	var forum models.Forum
	if err := f.db.Where("name = ?", name).First(&forum).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "subforum not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load subforum")
		return
	}

	var threads []models.Thread
	if err := f.db.Preload("Creator").
		Where("forum_id = ?", forum.ID).
		Order("is_pinned DESC, created_at DESC").
		Find(&threads).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load threads")
		return
	}

	utils.Success(ctx, gin.H{"forum": forum, "threads": threads})
}

// SearchForums performs a case-insensitive name search, up to 10 results
// ordered by name.
func (f *ForumController) SearchForums(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("q"))
	if query == "" {
		utils.Success(ctx, gin.H{"items": []models.Forum{}})
		return
	}

	var forums []models.Forum
	if err := f.db.Where("LOWER(name) LIKE LOWER(?)", "%"+query+"%").
		Order("name ASC").
		Limit(10).
		Find(&forums).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to search subforums")
		return
	}

	utils.Success(ctx, gin.H{"items": forums})
}

// Subscribe follows a subforum. Subscribing twice is benign: the second call
// reports the existing subscription instead of erroring.
func (f *ForumController) Subscribe(ctx *gin.Context) {
	forum, ok := f.forumFromPath(ctx)
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res := f.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Subscription{UserID: userID, ForumID: forum.ID})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to subscribe")
		return
	}
	if res.RowsAffected == 0 {
		utils.Success(ctx, gin.H{"subscribed": true, "message": "already subscribed"})
		return
	}
	utils.Success(ctx, gin.H{"subscribed": true, "message": "subscribed"})
}

// Unsubscribe unfollows a subforum. Unsubscribing while not subscribed is a
// no-op reported as such.
func (f *ForumController) Unsubscribe(ctx *gin.Context) {
	forum, ok := f.forumFromPath(ctx)
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res := f.db.Where("user_id = ? AND forum_id = ?", userID, forum.ID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to unsubscribe")
		return
	}
	if res.RowsAffected == 0 {
		utils.Success(ctx, gin.H{"subscribed": false, "message": "not subscribed"})
		return
	}
	utils.Success(ctx, gin.H{"subscribed": false, "message": "unsubscribed"})
}

// DeleteForum removes a subforum and everything under it. Admin role only.
func (f *ForumController) DeleteForum(ctx *gin.Context) {
	forum, ok := f.forumFromPath(ctx)
	if !ok {
		return
	}

	user, ok := currentUser(ctx, f.db)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if !user.IsAdmin() {
		utils.Error(ctx, http.StatusForbidden, 40303, "only admins can delete subforums")
		return
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		var threadIDs []uint
		if err := tx.Model(&models.Thread{}).
			Where("forum_id = ?", forum.ID).
			Pluck("id", &threadIDs).Error; err != nil {
			return err
		}
		if len(threadIDs) > 0 {
			if err := tx.Where("thread_id IN ?", threadIDs).Delete(&models.ThreadVote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("thread_id IN ?", threadIDs).Delete(&models.ThreadComment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("forum_id = ?", forum.ID).Delete(&models.Thread{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("forum_id = ?", forum.ID).Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Forum{}, forum.ID).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete subforum")
		return
	}

	utils.Success(ctx, gin.H{"message": "subforum deleted"})
}

func (f *ForumController) forumFromPath(ctx *gin.Context) (*models.Forum, bool) {
	name := ctx.Param("name")
	var forum models.Forum
	if err := f.db.Where("name = ?", name).First(&forum).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "subforum not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load subforum")
		return nil, false
	}
	return &forum, true
}
