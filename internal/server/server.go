// Package server exposes the host's IPC surface to UI windows: RPC-style
// HTTP endpoints under /api plus a per-surface WebSocket event channel.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/pokymono/kisame-sub001/internal/backend"
	"github.com/pokymono/kisame-sub001/internal/config"
	"github.com/pokymono/kisame-sub001/internal/engine"
	"github.com/pokymono/kisame-sub001/internal/shellenv"
	"github.com/pokymono/kisame-sub001/internal/terminal"
)

type Server struct {
	cfg        *config.Config
	router     chi.Router
	httpServer *http.Server

	hub       *Hub
	platform  shellenv.Platform
	terminals *terminal.Manager
	locator   *backend.Locator
	client    *backend.Client
	engine    *engine.Runner
}

func New(cfg *config.Config) *Server {
	hub := NewHub()
	platform := shellenv.Current()

	s := &Server{
		cfg:       cfg,
		hub:       hub,
		platform:  platform,
		terminals: terminal.NewManager(platform, hub),
		locator: &backend.Locator{
			EnvURL:     cfg.BackendURLOverride,
			ConfigFile: cfg.BackendConfigFile,
		},
		client: backend.NewClient(),
		engine: &engine.Runner{
			PythonBin: cfg.PythonBin,
			Entry:     cfg.EngineEntry,
		},
	}

	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	// The UI is served from its own dev origin during development.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", surfaceIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.hub.HandleWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/backend-url", s.handleBackendURL)
		r.Post("/chat", s.handleChat)
		r.Get("/shells", s.handleListShells)

		r.Route("/terminal", func(r chi.Router) {
			r.Post("/", s.handleCreateTerminal)
			r.Post("/{id}/write", s.handleWriteTerminal)
			r.Post("/{id}/resize", s.handleResizeTerminal)
			r.Delete("/{id}", s.handleKillTerminal)
		})
	})

	s.router = r
}

// Handler exposes the router; used by tests to run against httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
		// No Read/Write timeouts: uploads stream for as long as they need
		// and the event WebSocket is long-lived.
		IdleTimeout: 60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown drains HTTP, kills every terminal session, and disconnects all
// surfaces. No session may outlive the host process.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down IPC server")

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.terminals.Shutdown()
	s.hub.CloseAll()
	return err
}
