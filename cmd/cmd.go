package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixshare-backend/internal/authz"
	"pixshare-backend/internal/config"
	"pixshare-backend/internal/handlers"
	"pixshare-backend/internal/middleware"
	"pixshare-backend/internal/notify"
	"pixshare-backend/internal/repository"
	"pixshare-backend/internal/services"
	"pixshare-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
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
	setupLogger(cfg.Log)

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

	// Apply schema
	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Initialize storage
	store, err := newStore(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	// Initialize push notifications
	notifier, err := notify.New(notify.Config{
		KeyPath:  cfg.APNs.KeyPath,
		KeyID:    cfg.APNs.KeyID,
		TeamID:   cfg.APNs.TeamID,
		Topic:    cfg.APNs.Topic,
		Sandbox:  cfg.APNs.Sandbox,
		Disabled: !cfg.APNs.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize APNs client")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	albumRepo := repository.NewAlbumRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	eventRepo := repository.NewEventRepository(db)
	shareRepo := repository.NewShareRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	graph := repository.NewGraph(db)

	// Initialize services
	feedHub := services.NewFeedHub()
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret)
	albumService := services.NewAlbumService(albumRepo, photoRepo, store)
	photoService := services.NewPhotoService(photoRepo, eventRepo, shareRepo, userRepo, store, feedHub, notifier)
	eventService := services.NewEventService(eventRepo, shareRepo)
	shareService := services.NewShareService(shareRepo)
	commentService := services.NewCommentService(commentRepo, eventRepo, shareRepo, userRepo, feedHub, notifier)
	reactionService := services.NewReactionService(reactionRepo, shareRepo)
	dashboardService := services.NewDashboardService(photoRepo, albumRepo)

	// The authorization engine sits in front of every resource route.
	engine := authz.New(authService, shareRepo, graph)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	albumHandler := handlers.NewAlbumHandler(engine, albumService, photoService)
	photoHandler := handlers.NewPhotoHandler(engine, photoService, commentService, reactionService)
	eventHandler := handlers.NewEventHandler(engine, eventService, photoService)
	shareHandler := handlers.NewShareHandler(engine, shareService, albumService, photoService, eventService)
	fileHandler := handlers.NewFileHandler(engine, store)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	feedHandler := handlers.NewFeedHandler(engine, feedHub)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CORS),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Share-Token", "X-Guest-Key"},
		AllowCredentials: true,
	}).Handler)
	r.Use(middleware.Credentials)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/s/{token}", shareHandler.Resolve)
		r.Post("/s/{token}/guest", shareHandler.RegisterGuest)

		// Resource routes; the engine inside each handler decides between
		// session, participant and share access.
		r.Get("/albums/{albumID}", albumHandler.Get)
		r.Get("/albums/{albumID}/photos", albumHandler.ListPhotos)
		r.Post("/albums/{albumID}/photos", albumHandler.UploadPhoto)
		r.Delete("/albums/{albumID}", albumHandler.Delete)
		r.Post("/albums/{albumID}/shares", shareHandler.CreateForAlbum)

		r.Get("/photos/{photoID}", photoHandler.Get)
		r.Delete("/photos/{photoID}", photoHandler.Delete)
		r.Get("/photos/{photoID}/comments", photoHandler.ListComments)
		r.Post("/photos/{photoID}/comments", photoHandler.AddComment)
		r.Delete("/photos/{photoID}/comments/{commentID}", photoHandler.DeleteComment)
		r.Get("/photos/{photoID}/reactions", photoHandler.ListReactions)
		r.Post("/photos/{photoID}/reactions", photoHandler.AddReaction)
		r.Delete("/photos/{photoID}/reactions", photoHandler.RemoveReaction)
		r.Post("/photos/{photoID}/shares", shareHandler.CreateForPhoto)

		r.Get("/events/{eventID}", eventHandler.Get)
		r.Put("/events/{eventID}", eventHandler.Update)
		r.Delete("/events/{eventID}", eventHandler.Delete)
		r.Post("/events/{eventID}/link", eventHandler.RotateLink)
		r.Get("/events/{eventID}/albums", eventHandler.ListAlbums)
		r.Post("/events/{eventID}/albums", eventHandler.AttachAlbum)
		r.Delete("/events/{eventID}/albums/{albumID}", eventHandler.DetachAlbum)
		r.Get("/events/{eventID}/photos", eventHandler.ListPhotos)
		r.Get("/events/{eventID}/participants", eventHandler.ListParticipants)
		r.Delete("/events/{eventID}/participants/{userID}", eventHandler.RemoveParticipant)
		r.Post("/events/{eventID}/join", eventHandler.Join)
		r.Post("/events/{eventID}/shares", shareHandler.CreateForEvent)

		r.Delete("/shares/{shareID}", shareHandler.Revoke)

		// Account routes need a verified session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(authService))
			r.Get("/me", authHandler.Me)
			r.Put("/me", authHandler.UpdateMe)
			r.Put("/me/password", authHandler.ChangePassword)
			r.Put("/me/push-token", authHandler.RegisterPushToken)
			r.Get("/dashboard/storage", dashboardHandler.Storage)
			r.Get("/dashboard/recent-albums", dashboardHandler.RecentAlbums)
			r.Get("/albums", albumHandler.ListMine)
			r.Post("/albums", albumHandler.Create)
			r.Get("/events", eventHandler.ListMine)
			r.Post("/events", eventHandler.Create)
			r.Post("/events/{eventID}/leave", eventHandler.Leave)
		})
	})

	// Raw file serving; authorization runs against the path itself.
	r.Get("/uploads/*", fileHandler.Serve)

	// WebSocket live feed
	r.Get("/events/{eventID}/feed", feedHandler.HandleFeed)

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

// newStore builds the configured photo store
func newStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "s3":
		return storage.NewS3(context.Background(), storage.S3Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	case "local", "":
		dir := cfg.Local.Dir
		if dir == "" {
			dir = "uploads"
		}
		return storage.NewLocal(dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// allowedOrigins falls back to a permissive default for development
func allowedOrigins(cfg config.CORSConfig) []string {
	if len(cfg.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.AllowedOrigins
}

// setupLogger configures zerolog logger
func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	switch cfg.Level {
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
