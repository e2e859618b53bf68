package main

import (
	"github.com/soundcircle/soundcircle/config"
	"github.com/soundcircle/soundcircle/models"
	"github.com/soundcircle/soundcircle/routes"
	"github.com/soundcircle/soundcircle/services"
	"github.com/soundcircle/soundcircle/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Forum{},
		&models.Thread{},
		&models.ThreadComment{},
		&models.Subscription{},
		&models.ThreadVote{},
		&models.PageView{},
	)

	provider := services.NewSpotifyClient()

	r := routes.SetupRouter(db, provider)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
