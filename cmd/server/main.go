package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jmcallister/golfpool/internal/api"
	"github.com/jmcallister/golfpool/internal/api/handlers"
	"github.com/jmcallister/golfpool/internal/api/middleware"
	"github.com/jmcallister/golfpool/internal/providers"
	"github.com/jmcallister/golfpool/internal/services"
	ws "github.com/jmcallister/golfpool/internal/websocket"
	"github.com/jmcallister/golfpool/pkg/config"
	"github.com/jmcallister/golfpool/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	logger := logrus.StandardLogger()
	if cfg.IsDevelopment() {
		logger.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Score cache: redis when reachable so cached scores survive
	// restarts, in-memory otherwise
	store := newStore(cfg, logger)
	cache := services.NewScoreCache(store, logger)

	// Score sources, in fallback priority order
	pgatour := providers.NewPGATourProvider(cfg.PGATourURL, cfg.SourceRate, cfg.SourceTimeout, logger)
	espn := providers.NewESPNProvider(cfg.ESPNBaseURL, cfg.SourceRate, cfg.SourceTimeout, logger)
	sheet := providers.NewSheetProvider(cfg.SheetCSVURL, cfg.SourceTimeout, logger)
	static := providers.NewStaticProvider()

	selector := services.NewSourceSelector(
		[]providers.ScoreProvider{pgatour, espn, sheet},
		static,
		cache,
		cfg.FreshnessWindow,
		logger,
	)

	// Pool entries
	registry, err := services.NewPickRegistry(db, logger)
	if err != nil {
		logrus.Fatalf("Failed to initialize pick registry: %v", err)
	}
	if _, err := registry.ImportFile(cfg.EntriesFile); err != nil {
		logrus.Warnf("Entry import skipped: %v", err)
	}

	calculator := services.NewStandingsCalculator(cfg.TiebreakerTarget1, cfg.TiebreakerTarget2, logger)

	// WebSocket hub for live standings pushes
	hub := ws.NewHub(logger)
	go hub.Run()

	// Polling controller drives the refresh cadence
	poller := services.NewPollingController(
		selector, registry, calculator, cache, espn, hub,
		cfg.ActivePollInterval, cfg.IdlePollInterval, cfg.StatusCheckInterval,
		logger,
	)
	if err := poller.Start(); err != nil {
		logrus.Fatalf("Failed to start polling controller: %v", err)
	}
	defer poller.Stop()

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CorsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.GetHealth)

	// API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, cfg, poller, selector, cache, registry)

	// WebSocket endpoint at root level
	router.GET("/ws", hub.HandleWebSocket)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// newStore picks the cache backend. Redis keeps cached scores across
// restarts; if it is unreachable the pool still works, it just loses the
// cache on restart.
func newStore(cfg *config.Config, logger *logrus.Logger) services.Store {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warnf("Invalid Redis URL, falling back to in-memory cache: %v", err)
		return services.NewMemoryStore()
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnf("Redis unreachable, falling back to in-memory cache: %v", err)
		return services.NewMemoryStore()
	}

	logger.Info("Connected to Redis cache")
	return services.NewRedisStore(client)
}
