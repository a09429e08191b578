package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/littletalks/backend/internal/api/handlers"
	"github.com/littletalks/backend/internal/api/middleware"
	"github.com/littletalks/backend/internal/audit"
	"github.com/littletalks/backend/internal/auth"
	"github.com/littletalks/backend/internal/cache"
	"github.com/littletalks/backend/internal/config"
	"github.com/littletalks/backend/internal/proxy"
	"github.com/littletalks/backend/internal/queue"
	"github.com/littletalks/backend/internal/transcription"
)

type Router struct {
	mux    *chi.Mux
	db     *pgxpool.Pool
	redis  *redis.Client
	cfg    *config.Config
	jwt    *auth.JWTMiddleware
	apikey *auth.APIKeyMiddleware
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:    chi.NewRouter(),
		db:     db,
		redis:  rdb,
		cfg:    cfg,
		jwt:    auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		apikey: auth.NewAPIKeyMiddleware(db, cfg.Auth.APIKeyHeader),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(10, 30)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Core services
	auditStore := audit.NewStore(rt.db)
	proxySvc := proxy.NewService(rt.cfg.Providers, rt.cfg.Audit.Retention, auditStore)

	poller := transcription.NewPoller(rt.cfg.Transcription.PollInterval, rt.cfg.Transcription.PollMaxAttempts)
	var providers []transcription.Provider
	for _, name := range rt.cfg.Transcription.ProviderOrder {
		p, err := transcription.NewProvider(name, proxySvc, poller)
		if err != nil {
			slog.Warn("skipping unknown provider in STT_PROVIDER_ORDER", "provider", name)
			continue
		}
		providers = append(providers, p)
	}
	orch := transcription.NewOrchestrator(providers...)

	var (
		transcriptCache *cache.Cache
		queueClient     *queue.Client
	)
	if rt.redis != nil {
		transcriptCache = cache.NewCache(rt.redis)
		queueClient = queue.NewClient(rt.cfg.Redis)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Auth: try API key first, then JWT
		r.Use(rt.apikey.Authenticate)
		r.Use(rt.jwt.Authenticate)

		transcriptionH := handlers.NewTranscriptionHandler(
			orch,
			transcriptCache,
			rt.cfg.Transcription.CacheTTL,
			rt.cfg.Transcription.RequestTimeout,
		)
		r.Post("/transcriptions", transcriptionH.Create)

		providersH := handlers.NewProvidersHandler(proxySvc)
		r.Get("/providers", providersH.List)

		proxyH := handlers.NewProxyHandler(proxySvc)
		r.Route("/proxy", func(r chi.Router) {
			r.Post("/{provider}/transcribe", proxyH.Transcribe)
			r.Get("/{provider}/jobs/{id}", proxyH.JobStatus)
		})

		adminH := handlers.NewAdminHandler(auditStore, queueClient)
		r.Route("/admin", func(r chi.Router) {
			r.Get("/audit", adminH.AuditRequests)
			r.Post("/audit/purge", adminH.TriggerAuditPurge)
		})
	})

	return r
}
