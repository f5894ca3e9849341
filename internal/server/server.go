// Package server provides the HTTP server and routing for Newswire.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/wardstone/newswire/internal/broadcast"
	"github.com/wardstone/newswire/internal/clients/llm"
	"github.com/wardstone/newswire/internal/config"
	"github.com/wardstone/newswire/internal/database"
	"github.com/wardstone/newswire/internal/events"
	"github.com/wardstone/newswire/internal/news"
	"github.com/wardstone/newswire/internal/poller"
	"github.com/wardstone/newswire/internal/snapshots"
)

// Config holds server dependencies.
type Config struct {
	Log         zerolog.Logger
	Cfg         *config.Config
	Hub         *broadcast.Hub
	Bus         *events.Bus
	Ledger      *news.Ledger
	Store       *news.CardStore
	Market      *snapshots.Cache
	Macro       *snapshots.Cache
	FX          *snapshots.Cache
	Commodity   *snapshots.Cache
	Predictions *snapshots.PredictionCache
	Pools       []*poller.Pool
	LLM         *llm.Client // nil disables the analysis endpoint
	ClientDB    *database.DB
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	cfg         *config.Config
	hub         *broadcast.Hub
	bus         *events.Bus
	ledger      *news.Ledger
	store       *news.CardStore
	market      *snapshots.Cache
	macro       *snapshots.Cache
	fx          *snapshots.Cache
	commodity   *snapshots.Cache
	predictions *snapshots.PredictionCache
	pools       []*poller.Pool
	llm         *llm.Client
	clientDB    *database.DB
	startupTime time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		cfg:         cfg.Cfg,
		hub:         cfg.Hub,
		bus:         cfg.Bus,
		ledger:      cfg.Ledger,
		store:       cfg.Store,
		market:      cfg.Market,
		macro:       cfg.Macro,
		fx:          cfg.FX,
		commodity:   cfg.Commodity,
		predictions: cfg.Predictions,
		pools:       cfg.Pools,
		llm:         cfg.LLM,
		clientDB:    cfg.ClientDB,
		startupTime: time.Now(),
	}

	s.setupMiddleware(cfg.Cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler: s.router,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	// The websocket route stays outside the timeout group; sessions stay
	// open for hours.
	s.router.Get("/ws", s.hub.HandleWS)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/api/health", s.handleHealth)
		r.Get("/api/system/status", s.handleSystemStatus)
		r.Get("/api/snapshots", s.handleSnapshots)
		r.Get("/api/cards", s.handleListCards)
		r.Post("/api/cards", s.handleSubmitCard)
		r.Post("/api/analysis", s.handleAnalysis)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
