package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/soundcircle/soundcircle/config"
	"github.com/soundcircle/soundcircle/controllers"
	"github.com/soundcircle/soundcircle/middleware"
	"github.com/soundcircle/soundcircle/services"
	"github.com/soundcircle/soundcircle/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, provider services.MusicProvider) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	ginLogPath := cfg.GinPath
	// Use application log level as reference
	gl, err := utils.NewRollingFileLogger(ginLogPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(db))

	r.Static("/static", "./static")

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db, provider)
	forumController := controllers.NewForumController(db)
	threadController := controllers.NewThreadController(db)
	profileController := controllers.NewProfileController(db, provider)
	feedController := controllers.NewFeedController(db, provider)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.GET("/spotify/login", authController.Login)
	authGroup.GET("/spotify/callback", authController.Callback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public reads
	api.GET("/search/forums", forumController.SearchForums)
	api.GET("/forums/:name", forumController.GetForum)
	api.GET("/threads", threadController.ListRecent)
	api.GET("/threads/:id", threadController.GetThread)
	api.GET("/threads/:id/votes", threadController.GetVotes)
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.GET("/profile", profileController.GetProfile)
	protected.PATCH("/profile", profileController.UpdateProfile)

	protected.POST("/forums", forumController.CreateForum)
	protected.POST("/forums/:name/subscribe", forumController.Subscribe)
	protected.POST("/forums/:name/unsubscribe", forumController.Unsubscribe)
	protected.DELETE("/forums/:name", forumController.DeleteForum)
	protected.POST("/forums/:name/threads", threadController.CreateThread)

	protected.PUT("/threads/:id", threadController.UpdateThread)
	protected.DELETE("/threads/:id", threadController.DeleteThread)
	protected.POST("/threads/:id/comments", threadController.CreateComment)
	protected.DELETE("/comments/:commentId", threadController.DeleteComment)
	protected.POST("/threads/:id/vote", threadController.CastVote)

	protected.GET("/feed", feedController.GetFeed)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		if strings.HasPrefix(path, "/static/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "static asset not found"})
			return
		}
		ctx.Status(http.StatusNotFound)
	})

	return r
}
