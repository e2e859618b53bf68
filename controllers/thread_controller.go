package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/models"
	"github.com/soundcircle/soundcircle/services"
	"github.com/soundcircle/soundcircle/utils"
)

// ThreadController manages threads, their comments and votes.
type ThreadController struct {
	db *gorm.DB
}

// NewThreadController creates a new ThreadController instance.
func NewThreadController(db *gorm.DB) *ThreadController {
	return &ThreadController{db: db}
}

// CreateThread posts a new thread inside a subforum.
func (t *ThreadController) CreateThread(ctx *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		SpotifyURL  string `json:"spotify_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "title cannot be empty")
		return
	}

	name := ctx.Param("name")
	var forum models.Forum
	if err := t.db.Where("name = ?", name).First(&forum).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40405, "subforum not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load subforum")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	thread := models.Thread{
		ForumID:     forum.ID,
		CreatorID:   userID,
		Title:       title,
		Description: utils.Sanitize(req.Description),
		SpotifyURL:  strings.TrimSpace(req.SpotifyURL),
	}
	if err := t.db.Create(&thread).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to create thread")
		return
	}

	utils.Success(ctx, gin.H{"thread": thread})
}

// ListRecent returns the 15 most recent threads across all subforums.
func (t *ThreadController) ListRecent(ctx *gin.Context) {
	var threads []models.Thread
	if err := t.db.Preload("Creator").
		Order("created_at DESC").
		Limit(15).
		Find(&threads).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to list threads")
		return
	}
	utils.Success(ctx, gin.H{"items": threads})
}

// GetThread returns a thread with its forum name, creator, comments in
// created_at ascending order, and the current vote tally.
func (t *ThreadController) GetThread(ctx *gin.Context) {
	threadID := ctx.Param("id")

	var thread models.Thread
	if err := t.db.Preload("Creator").First(&thread, threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "thread not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load thread")
		return
	}

	var forum models.Forum
	if err := t.db.First(&forum, thread.ForumID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load subforum")
		return
	}

	var comments []models.ThreadComment
	if err := t.db.Preload("User").
		Where("thread_id = ?", thread.ID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load comments")
		return
	}

	likes, dislikes, err := services.Tally(t.db, thread.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to tally votes")
		return
	}

	utils.Success(ctx, gin.H{
		"thread":     thread,
		"forum_name": forum.Name,
		"comments":   comments,
		"likes":      likes,
		"dislikes":   dislikes,
	})
}

// UpdateThread allows the creator to update title and description.
func (t *ThreadController) UpdateThread(ctx *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "title cannot be empty")
		return
	}

	var thread models.Thread
	if err := t.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "thread not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load thread")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if thread.CreatorID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own threads")
		return
	}

	thread.Title = title
	thread.Description = utils.Sanitize(req.Description)
	if err := t.db.Save(&thread).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to update thread")
		return
	}

	utils.Success(ctx, gin.H{"thread": thread})
}

// DeleteThread allows the creator or an admin to delete a thread together
// with its comments and votes.
func (t *ThreadController) DeleteThread(ctx *gin.Context) {
	var thread models.Thread
	if err := t.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "thread not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load thread")
		return
	}

	user, ok := currentUser(ctx, t.db)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if thread.CreatorID != user.ID && !user.IsAdmin() {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own threads")
		return
	}

	err := t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", thread.ID).Delete(&models.ThreadVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", thread.ID).Delete(&models.ThreadComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Thread{}, thread.ID).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to delete thread")
		return
	}

	utils.Success(ctx, gin.H{"message": "thread deleted"})
}

// CreateComment appends a comment to a thread.
func (t *ThreadController) CreateComment(ctx *gin.Context) {
	var req struct {
		Description string `json:"description" binding:"required"`
		SpotifyURL  string `json:"spotify_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid request payload")
		return
	}

	description := utils.Sanitize(req.Description)
	if strings.TrimSpace(description) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40026, "comment cannot be empty")
		return
	}

	var thread models.Thread
	if err := t.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "thread not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load thread")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment := models.ThreadComment{
		ThreadID:    thread.ID,
		UserID:      userID,
		Description: description,
		SpotifyURL:  strings.TrimSpace(req.SpotifyURL),
	}
	if err := t.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50038, "failed to create comment")
		return
	}
	if err := t.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50039, "failed to load comment")
		return
	}

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment allows the comment owner or an admin to delete a comment.
func (t *ThreadController) DeleteComment(ctx *gin.Context) {
	var comment models.ThreadComment
	if err := t.db.First(&comment, ctx.Param("commentId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load comment")
		return
	}

	user, ok := currentUser(ctx, t.db)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}
	if comment.UserID != user.ID && !user.IsAdmin() {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only delete your own comment")
		return
	}
	if err := t.db.Delete(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to delete comment")
		return
	}

	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// CastVote records a like or dislike. Repeating the same vote toggles it
// off; the opposite vote switches it. The resulting state and tally are
// returned.
func (t *ThreadController) CastVote(ctx *gin.Context) {
	// Pointer so a literal 0 reaches the value check instead of failing
	// binding as an absent field.
	var req struct {
		Vote *int `json:"vote" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid request payload")
		return
	}
	vote := *req.Vote
	if vote != models.VoteLike && vote != models.VoteDislike {
		utils.Error(ctx, http.StatusBadRequest, 40028, "vote must be 1 or -1")
		return
	}

	var thread models.Thread
	if err := t.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "thread not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load thread")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	state, err := services.CastVote(t.db, userID, thread.ID, vote)
	if err != nil {
		if errors.Is(err, services.ErrInvalidVote) {
			utils.Error(ctx, http.StatusBadRequest, 40028, "vote must be 1 or -1")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to register vote")
		return
	}

	likes, dislikes, err := services.Tally(t.db, thread.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to tally votes")
		return
	}

	utils.Success(ctx, gin.H{"state": state, "likes": likes, "dislikes": dislikes})
}

// GetVotes returns the tally for a thread.
func (t *ThreadController) GetVotes(ctx *gin.Context) {
	var thread models.Thread
	if err := t.db.First(&thread, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40406, "thread not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load thread")
		return
	}

	likes, dislikes, err := services.Tally(t.db, thread.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to tally votes")
		return
	}
	utils.Success(ctx, gin.H{"likes": likes, "dislikes": dislikes})
}
