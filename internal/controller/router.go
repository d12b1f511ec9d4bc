package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/bingwa/internal/application/engine"
	"github.com/cassiomorais/bingwa/internal/infrastructure/config"
	"github.com/cassiomorais/bingwa/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/bingwa/internal/middleware"
)

// RouterDeps wires the HTTP API. DB, Redis, History, Idempotency and
// Gatherer are optional.
type RouterDeps struct {
	Engine         *engine.Engine
	DB             Pinger
	Redis          redis.Cmdable
	History        RoundTripLister
	Idempotency    customMW.IdempotencyStore
	IdempotencyTTL time.Duration
	Metrics        *observability.Metrics
	Gatherer       prometheus.Gatherer
	Server         config.ServerConfig
	JWTSecret      string
	InstanceID     string
	Logger         zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing(deps.InstanceID))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Idempotency-Replayed"},
		AllowCredentials: deps.Server.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	if deps.Metrics != nil {
		r.Use(customMW.Metrics(deps.Metrics))
	}

	healthH := NewHealthController(deps.DB, deps.Redis)
	txnH := NewTransactionController(deps.Engine, deps.History)
	ussdH := NewUssdController(deps.Engine)
	smsH := NewSmsController(deps.Engine)
	engineH := NewEngineController(deps.Engine)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(customMW.RateLimit(deps.Server.RateLimit))
		r.Use(customMW.OptionalAuth(deps.JWTSecret))

		begin := r.With()
		if deps.Idempotency != nil {
			begin = r.With(customMW.Idempotency(deps.Idempotency, deps.IdempotencyTTL, deps.Logger))
		}

		// Transactions
		begin.Post("/transactions", txnH.Begin)
		r.Get("/transactions/current", txnH.Current)
		r.Get("/transactions/history", txnH.History)

		// Device bridge callbacks
		r.Post("/ussd/callback/{id}", ussdH.Callback)
		r.Post("/sms/inbound", smsH.Inbound)

		// Mailbox and notifications
		r.Get("/mailbox", smsH.Peek)
		r.Delete("/mailbox", smsH.Clear)
		begin.Post("/notifications/no-offer", smsH.NoOffer)

		r.Get("/sims", engineH.Sims)

		// Engine lifecycle and settings
		r.Route("/engine", func(r chi.Router) {
			r.Post("/start", engineH.Start)
			r.Post("/stop", engineH.Stop)
			r.Post("/tick", engineH.Tick)
			r.Get("/status", engineH.Status)
			r.Get("/keywords", engineH.Keywords)
			r.Put("/keywords", engineH.UpdateKeywords)
			r.Get("/templates", engineH.Templates)
			r.Put("/templates", engineH.UpdateTemplates)
		})
	})

	return r
}
