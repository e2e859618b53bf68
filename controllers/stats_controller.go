package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/models"
	"github.com/soundcircle/soundcircle/utils"
)

// StatsController provides forum statistics such as counts and daily active users.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the forum.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount int64
	var forumCount int64
	var threadCount int64
	var commentCount int64
	var dailyActive int64

	// Fall back to 0 per counter instead of failing the whole endpoint.
	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := s.db.Model(&models.Forum{}).Count(&forumCount).Error; err != nil {
		forumCount = 0
	}
	if err := s.db.Model(&models.Thread{}).Count(&threadCount).Error; err != nil {
		threadCount = 0
	}
	if err := s.db.Model(&models.ThreadComment{}).Count(&commentCount).Error; err != nil {
		commentCount = 0
	}

	// Daily active (PV-based): sum of today's page views across all paths.
	// Compare against the local midnight the PV recorder writes.
	now := time.Now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&dailyActive).Error; err != nil {
		dailyActive = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":         userCount,
		"forum_count":        forumCount,
		"thread_count":       threadCount,
		"comment_count":      commentCount,
		"daily_active_count": dailyActive,
	})
}
