package main

import (
	"fmt"
	"log"

	"search-prediction-api/config"
	"search-prediction-api/handlers"
	"search-prediction-api/middleware"
	"search-prediction-api/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database: DATABASE_URL selects postgres, otherwise a local
	// SQLite file. TranslateError turns driver unique-violations into
	// gorm.ErrDuplicatedKey on both backends.
	var dialector gorm.Dialector
	if cfg.Database.UsePostgres() {
		dialector = postgres.Open(cfg.Database.URL)
	} else {
		dialector = sqlite.Open(cfg.Database.SQLitePath)
	}
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := services.NewPredictionStore(db)
	if err := store.Migrate(); err != nil {
		log.Fatalf("Failed to migrate predictions table: %v", err)
	}

	// Load the scoring artifact once; it is immutable for the process
	// lifetime.
	artifact, err := services.LoadArtifact(cfg.Model.Path)
	if err != nil {
		log.Fatalf("Failed to load scoring artifact: %v", err)
	}
	scorer := services.NewScorer(artifact)
	log.Printf("scoring artifact loaded: model=%s columns=%d", scorer.ModelVersion(), len(artifact.Columns))

	// Redis is optional; without it the list cache and live stream degrade.
	cache := services.NewCacheService(cfg.Redis.URL)
	defer cache.Close()

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "Search Prediction API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.NewPredictionHandler(store, scorer, cache)
	router.POST("/should_search", h.ShouldSearch)
	router.POST("/search_result", h.SearchResult)
	router.GET("/list-db-contents", h.ListDBContents)
	router.GET("/ws/predictions", handlers.LivePredictions(cache))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
