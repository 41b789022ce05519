package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"costume-vote-backend/internal/config"
	"costume-vote-backend/internal/handlers"
	"costume-vote-backend/internal/middleware"
	"costume-vote-backend/internal/repository"
	"costume-vote-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	if cfg.Admin.Secret == "" {
		log.Warn().Msg("No admin secret configured, administrative operations will be rejected")
	}

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if err := repository.CreateSchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to create schema")
	}

	// Initialize repositories
	entryRepo := repository.NewEntryRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	voterRepo := repository.NewVoterRepository(db)
	phaseRepo := repository.NewPhaseRepository(db)

	// Initialize blob store for costume images
	blobStore, err := services.NewS3BlobStore(
		context.Background(),
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create blob store")
	}

	// Initialize services
	adminService := services.NewAdminService(cfg.Admin.Secret)
	entryService := services.NewEntryService(entryRepo, phaseRepo, blobStore)
	votingService := services.NewVotingService(entryRepo, voteRepo, voterRepo, phaseRepo)
	phaseService := services.NewPhaseService(phaseRepo, entryRepo, blobStore)
	hub := services.NewLiveHub()

	// Initialize handlers
	entryHandler := handlers.NewEntryHandler(entryService, hub)
	votingHandler := handlers.NewVotingHandler(votingService, hub)
	phaseHandler := handlers.NewPhaseHandler(phaseService, adminService, hub)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/entries", entryHandler.Submit)
		r.Get("/entries", entryHandler.Leaderboard)
		r.Get("/entries/{id}", entryHandler.Get)
		r.Get("/phase", phaseHandler.GetPhase)
		r.Post("/votes", votingHandler.SubmitBallot)
		r.Post("/votes/single", votingHandler.CastSingleVote)
		r.Get("/voters/{phone}", votingHandler.VoterStatus)
		r.Post("/admin/login", phaseHandler.Login)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminMiddleware(adminService))
			r.Put("/admin/phase", phaseHandler.SetPhase)
			r.Post("/admin/finals", phaseHandler.TriggerFinals)
			r.Post("/admin/reset", phaseHandler.ResetAll)
			r.Patch("/admin/entries/{id}", entryHandler.AdminUpdate)
			r.Delete("/admin/entries/{id}", entryHandler.AdminDelete)
		})
	})

	// WebSocket route (live leaderboard feed)
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Admin-Secret")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
