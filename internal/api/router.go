package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jmcallister/golfpool/internal/api/handlers"
	"github.com/jmcallister/golfpool/internal/api/middleware"
	"github.com/jmcallister/golfpool/internal/services"
	"github.com/jmcallister/golfpool/pkg/config"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(
	group *gin.RouterGroup,
	cfg *config.Config,
	poller *services.PollingController,
	selector *services.SourceSelector,
	cache *services.ScoreCache,
	registry *services.PickRegistry,
) {
	authHandler := handlers.NewAuthHandler(cfg)
	scoresHandler := handlers.NewScoresHandler(poller, selector, cache)
	entriesHandler := handlers.NewEntriesHandler(registry, cfg)

	// Public routes
	group.POST("/auth/login", authHandler.Login)
	group.GET("/leaderboard", scoresHandler.GetLeaderboard)
	group.GET("/standings", scoresHandler.GetStandings)
	group.GET("/entries", entriesHandler.ListEntries)
	group.GET("/status", scoresHandler.GetStatus)

	// Mutating routes require the pool session token
	auth := group.Group("")
	auth.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		auth.POST("/refresh", scoresHandler.Refresh)
		auth.POST("/entries/import", entriesHandler.ImportEntries)
		auth.PUT("/entries/payment", entriesHandler.SetPayment)
	}
}
