package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nail-preview-backend/internal/config"
	"nail-preview-backend/internal/database"
	"nail-preview-backend/internal/gemini"
	"nail-preview-backend/internal/handlers"
	"nail-preview-backend/internal/looks"
	"nail-preview-backend/internal/middleware"
	"nail-preview-backend/internal/supabase"
	"nail-preview-backend/internal/transform"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := log.Logger

	// Gemini client; optional, the gateway reports a configuration error
	// without it
	var engine *gemini.Client
	if cfg.GeminiAPIKey != "" {
		engine, err = gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, 30*time.Second)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Gemini client")
		}
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set; transform gateway will reject requests")
	}

	// Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Supabase client")
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, []string{cfg.UploadsBucket})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage client")
	}

	notifier := supabase.NewNotifier(supabaseClient.Supabase)

	// Database client and migrations
	var dbClient *supabase.DatabaseClient
	if cfg.DatabaseURL != "" {
		dbClient, err = supabase.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize database client; looks API disabled")
		} else {
			defer dbClient.Close()

			migrator, err := database.NewMigrator(cfg.DatabaseURL)
			if err != nil {
				log.Warn().Err(err).Msg("failed to initialize migrator")
			} else {
				defer migrator.Close()
				if err := migrator.Run(); err != nil {
					log.Warn().Err(err).Msg("migration failed")
				} else {
					log.Info().Msg("migrations completed")
				}
			}
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set; looks API disabled")
	}

	// Looks service
	var looksService *looks.Service
	if dbClient != nil {
		uploader := looks.NewUploader(storageClient, looks.Buckets{
			Originals:  cfg.UploadsBucket,
			Transforms: cfg.LooksBucket,
		}, logger)
		looksService = looks.NewService(uploader, dbClient, storageClient, notifier, logger)
	}

	// Handlers
	var directEngine transform.DirectTransport
	if engine != nil {
		directEngine = engine
	}
	transformHandler := handlers.NewTransformHandler(directEngine, cfg.GeminiModel, logger)

	// Router
	router := gin.Default()
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// Transform gateway: open CORS, no auth, no caching
	gateway := router.Group("/v1", middleware.GatewayHeaders())
	gateway.POST("/transform", transformHandler.Transform)
	gateway.OPTIONS("/transform", func(c *gin.Context) {})

	// Looks API
	if looksService != nil {
		looksHandler := handlers.NewLooksHandler(looksService, logger)

		api := router.Group("/api/v1")
		api.Use(middleware.AuthMiddleware(cfg))
		api.GET("/looks", looksHandler.ListLooks)
		api.POST("/looks", looksHandler.SaveLook)
		api.DELETE("/looks/:look_id", looksHandler.DeleteLook)
	} else {
		log.Warn().Msg("looks endpoints not registered")
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
