package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hrkyc/internal/db"
	"hrkyc/internal/domain/auth"
	"hrkyc/internal/domain/directory"
	"hrkyc/internal/domain/documents"
	"hrkyc/internal/domain/identity"
	"hrkyc/internal/domain/reports"
	"hrkyc/internal/platform/config"
	"hrkyc/internal/platform/email"
	"hrkyc/internal/platform/metrics"
	"hrkyc/internal/platform/storage"
	"hrkyc/internal/transport/http/api"
	authhandler "hrkyc/internal/transport/http/handlers/auth"
	directoryhandler "hrkyc/internal/transport/http/handlers/directory"
	documentshandler "hrkyc/internal/transport/http/handlers/documents"
	reportshandler "hrkyc/internal/transport/http/handlers/reports"
	"hrkyc/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	objects, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		log.Fatalf("object storage bucket check failed: %v", err)
	}

	authStore := auth.NewStore(pool)
	directoryStore := directory.NewStore(pool)
	documentsStore := documents.NewStore(pool)

	mailer := email.New(cfg)
	directoryService := directory.NewService(directoryStore, objects, documentsStore)
	documentsService := documents.NewService(documentsStore, objects, mailer, cfg.EmailFrom)
	resolver := identity.NewService(directoryStore)
	reportsService := reports.NewService(directoryService, documentsService)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Auth(cfg.JWTSecret, authStore))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))

		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret, resolver)
		authHandler.RegisterRoutes(r)

		directoryHandler := directoryhandler.NewHandler(directoryService, authStore, cfg.MaxUploadBytes)
		directoryHandler.RegisterRoutes(r)

		documentsHandler := documentshandler.NewHandler(documentsService, directoryStore, cfg.MaxUploadBytes, cfg.PresignTTL)
		documentsHandler.RegisterRoutes(r)

		reportsHandler := reportshandler.NewHandler(reportsService)
		reportsHandler.RegisterRoutes(r)

		if collector != nil {
			r.With(middleware.RequireAdmin).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
				api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
			})
		}
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	log.Printf("HR KYC server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// spaHandler serves the client bundle and falls back to index.html so the
// client-side routes (/login, /admin-dashboard, /user-dashboard) resolve.
type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
