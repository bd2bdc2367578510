package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"masterboxer.com/social-posts/auth"
	"masterboxer.com/social-posts/config"
	"masterboxer.com/social-posts/database"
	"masterboxer.com/social-posts/middleware"
	"masterboxer.com/social-posts/routes"
	"masterboxer.com/social-posts/services"
	"masterboxer.com/social-posts/store"
	firestorestore "masterboxer.com/social-posts/store/firestore"
	"masterboxer.com/social-posts/store/memory"
	"masterboxer.com/social-posts/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Config: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app *firebase.App
	if cfg.UsesFirebase() {
		var err error
		app, err = services.InitFirebase(ctx, cfg.Firebase.CredentialsPath, cfg.Firebase.ProjectID)
		if err != nil {
			log.Fatal("Firebase init failed: ", err)
		}
	}

	s, err := openStore(ctx, cfg, app)
	if err != nil {
		log.Fatal("Store init failed: ", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Printf("Store close error: %v", err)
		}
	}()
	log.Printf("Using %s store", cfg.StoreBackend)

	notifier, err := newNotifier(ctx, cfg, app)
	if err != nil {
		log.Fatal("Notifier init failed: ", err)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	router := routes.NewRouter(s, tokens, notifier)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	var handler http.Handler = router
	handler = rateLimiter.Middleware(handler)
	if cfg.TrustProxy {
		handler = chiMiddleware.RealIP(handler)
	}
	handler = cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})(handler)
	handler = chiMiddleware.Recoverer(handler)
	handler = chiMiddleware.Logger(handler)
	handler = chiMiddleware.RequestID(handler)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config, app *firebase.App) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memory.New(), nil

	case config.BackendPostgres:
		db, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, err
		}
		log.Println("Migrations completed successfully")
		return postgres.New(db), nil

	case config.BackendFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		return firestorestore.New(client, cfg.Firebase.CollectionPrefix), nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

func newNotifier(ctx context.Context, cfg config.Config, app *firebase.App) (services.Notifier, error) {
	if !cfg.Firebase.NotificationsEnabled {
		return services.LogNotifier{}, nil
	}
	return services.NewFCMNotifier(ctx, app)
}
