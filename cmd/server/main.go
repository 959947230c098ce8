package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/cineparty-back/internal/auth"
	"github.com/user/cineparty-back/internal/cache"
	"github.com/user/cineparty-back/internal/calls"
	"github.com/user/cineparty-back/internal/catalog"
	"github.com/user/cineparty-back/internal/chat"
	"github.com/user/cineparty-back/internal/config"
	"github.com/user/cineparty-back/internal/database"
	"github.com/user/cineparty-back/internal/friends"
	"github.com/user/cineparty-back/internal/handlers"
	"github.com/user/cineparty-back/internal/middleware"
	"github.com/user/cineparty-back/internal/notifications"
	"github.com/user/cineparty-back/internal/realtime"
	"github.com/user/cineparty-back/internal/storage"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Services
	tokenService := auth.NewTokenService(
		cfg.JWTSecret,
		cfg.RefreshSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	// Repositories
	authRepo := auth.NewRepository(db.Pool)
	friendsRepo := friends.NewRepository(db.Pool)
	chatRepo := chat.NewRepository(db.Pool)
	notificationsRepo := notifications.NewRepository(db.Pool)

	// LiveKit media tokens for call audio/video
	mediaService := calls.NewMediaService(calls.MediaConfig{
		Host:      cfg.LiveKitHost,
		APIKey:    cfg.LiveKitAPIKey,
		APISecret: cfg.LiveKitAPISecret,
	})

	// S3 Storage
	s3Storage, err := storage.NewS3Storage(storage.Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		CDNURL:          cfg.S3CDNURL,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 storage: %v", err)
	}
	log.Println("S3 storage initialized")

	// Redis cache for TMDB responses and rate limiting
	redisCache, err := cache.NewRedisCache(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisCache.Close()
	log.Println("Redis cache initialized")

	// TMDB catalog client
	tmdbClient := catalog.NewTMDBClient(cfg.TMDBAccessToken)

	// Realtime hub: single goroutine owning presence, calls and watch parties
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()

	hub := realtime.NewHub(chatRepo, cfg.RingTimeout)
	go hub.Run(hubCtx)

	// Centrifuge realtime node
	rtNode, err := realtime.NewNode(tokenService, hub)
	if err != nil {
		log.Fatalf("Failed to create realtime node: %v", err)
	}

	// Realtime notifier for handlers
	rtNotifier := realtime.NewNotifier(hub)

	// Handlers
	authHandler := handlers.NewAuthHandler(authRepo, tokenService, s3Storage)
	friendsHandler := handlers.NewFriendsHandler(friendsRepo, authRepo, notificationsRepo, rtNotifier)
	chatHandler := handlers.NewChatHandler(chatRepo)
	notificationsHandler := handlers.NewNotificationsHandler(notificationsRepo)
	catalogHandler := handlers.NewCatalogHandler(tmdbClient, redisCache)
	callsHandler := handlers.NewCallsHandler(mediaService, authRepo)

	// Router
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	// Protected routes - Auth
	authMiddleware := middleware.Auth(tokenService)
	mux.Handle("GET /api/auth/me", authMiddleware(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/avatar", authMiddleware(http.HandlerFunc(authHandler.UploadAvatar)))

	// Friends
	mux.Handle("GET /api/friends", authMiddleware(http.HandlerFunc(friendsHandler.GetFriends)))
	mux.Handle("POST /api/friends/request", authMiddleware(http.HandlerFunc(friendsHandler.SendRequest)))
	mux.Handle("GET /api/friends/requests/incoming", authMiddleware(http.HandlerFunc(friendsHandler.GetIncomingRequests)))
	mux.Handle("POST /api/friends/requests/{id}/accept", authMiddleware(http.HandlerFunc(friendsHandler.AcceptRequest)))
	mux.Handle("POST /api/friends/requests/{id}/decline", authMiddleware(http.HandlerFunc(friendsHandler.DeclineRequest)))

	// Chat history
	mux.Handle("GET /api/chat/history/{friendId}", authMiddleware(http.HandlerFunc(chatHandler.History)))

	// Notifications
	mux.Handle("GET /api/notifications", authMiddleware(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("POST /api/notifications/{id}/read", authMiddleware(http.HandlerFunc(notificationsHandler.MarkRead)))

	// Catalog (TMDB proxy)
	mux.Handle("GET /api/catalog/{mediaType}/category/{category}", authMiddleware(http.HandlerFunc(catalogHandler.Category)))
	mux.Handle("GET /api/catalog/{mediaType}/{id}/details", authMiddleware(http.HandlerFunc(catalogHandler.Details)))
	mux.Handle("GET /api/catalog/{mediaType}/{id}/videos", authMiddleware(http.HandlerFunc(catalogHandler.Videos)))
	mux.Handle("GET /api/catalog/{mediaType}/{id}/credits", authMiddleware(http.HandlerFunc(catalogHandler.Credits)))
	mux.Handle("GET /api/catalog/{mediaType}/{id}/similar", authMiddleware(http.HandlerFunc(catalogHandler.Similar)))
	mux.Handle("GET /api/catalog/{mediaType}/{id}/recommendations", authMiddleware(http.HandlerFunc(catalogHandler.Recommendations)))
	mux.Handle("GET /api/catalog/search", authMiddleware(http.HandlerFunc(catalogHandler.Search)))

	// Calls (media tokens)
	mux.Handle("GET /api/calls/{callId}/media-token", authMiddleware(http.HandlerFunc(callsHandler.MediaToken)))

	// Centrifuge WebSocket endpoint
	mux.Handle("GET /api/ws", rtNode.WebsocketHandler())

	// Apply CORS
	handler := middleware.CORS(mux)

	// Server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := rtNode.Shutdown(ctx); err != nil {
			log.Printf("Centrifuge shutdown error: %v", err)
		}
		hubCancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server shutdown failed: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}

	log.Println("Server stopped")
}
