package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/config"
	"github.com/AnshRaj112/profiledir-backend/internal/database"
	"github.com/AnshRaj112/profiledir-backend/internal/handlers"
	"github.com/AnshRaj112/profiledir-backend/internal/logger"
	"github.com/AnshRaj112/profiledir-backend/internal/middleware"
	"github.com/AnshRaj112/profiledir-backend/internal/routes"
	"github.com/AnshRaj112/profiledir-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	lg, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	// Identity store
	lg.Info("connecting to PostgreSQL")
	pg, err := database.ConnectPostgres(ctx, cfg.PostgresURI, lg)
	if err != nil {
		return err
	}
	defer pg.Close()

	// Sessions and auth-state stream
	lg.Info("connecting to Redis")
	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI, lg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// Profile documents
	lg.Info("connecting to MongoDB")
	mongoClient, mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, lg)
	if err != nil {
		return err
	}
	defer func() { _ = database.DisconnectMongo(mongoClient) }()

	profiles := services.NewProfileStore(mongoDB, lg)
	if err := profiles.EnsureIndexes(ctx); err != nil {
		lg.Warn("failed to ensure profile indexes", zap.Error(err))
	}

	// Profile pictures
	var blobs services.BlobStore = services.DisabledBlobStore{}
	if cfg.BlobStoreConfigured() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			lg.Warn("Cloudinary unavailable, file uploads disabled", zap.Error(err))
		} else {
			blobs = cld
			lg.Info("Cloudinary service initialized", zap.String("folder", cfg.CloudinaryFolder))
		}
	} else {
		lg.Warn("Cloudinary credentials not found, file uploads disabled")
	}

	sessions := services.NewSessionStore(rdb, cfg.SessionTTL, lg)
	identity := services.NewIdentityService(services.NewPostgresIdentityStore(pg), sessions, lg)
	registration := services.NewRegistrationService(identity, profiles, blobs, cfg.MaxUploadBytes, lg)
	directory := services.NewDirectoryService(profiles, identity, lg)

	cookie := handlers.CookieConfig{
		Name:   cfg.SessionCookieName,
		TTL:    cfg.SessionTTL,
		Secure: cfg.IsProduction(),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(lg))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		lg.Info("production security enabled")
	} else {
		r.Use(middleware.NewRedisRateLimiter(rdb, lg).Middleware)
	}

	routes.SetupRoutes(r, routes.Deps{
		Auth:          handlers.NewAuthHandler(identity, registration, cookie, cfg.MaxUploadBytes, lg),
		Dashboard:     handlers.NewDashboardHandler(directory, cookie, lg),
		SessionStream: handlers.NewSessionStreamHandler(identity, cfg.SessionCookieName, cfg.AllowedOrigins, lg),
		AuthState:     identity,
		CookieName:    cfg.SessionCookieName,
		Logger:        lg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("profile directory backend running", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
