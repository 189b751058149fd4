// Package server exposes the document RAG operations over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"resilience-rag/internal/config"
	"resilience-rag/internal/memory"
	"resilience-rag/internal/registry"
	"resilience-rag/internal/retrieval"
)

// Server wires the registry, conversational memory and aggregator behind a
// chi router. Every route except health is session-scoped via ?sessionId=.
type Server struct {
	registry   *registry.Registry
	memory     *memory.Store
	aggregator *retrieval.Aggregator
	cfg        *config.Config
	server     *http.Server
}

func NewServer(reg *registry.Registry, mem *memory.Store, agg *retrieval.Aggregator, cfg *config.Config) *Server {
	return &Server{
		registry:   reg,
		memory:     mem,
		aggregator: agg,
		cfg:        cfg,
	}
}

// Router builds the route table. Exposed separately from Start so tests can
// drive it with httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Route("/files", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/list", s.handleList)
		r.Get("/loadDemo", s.handleLoadDemo)
		r.Get("/loadAllDemos", s.handleLoadAllDemos)
		r.Patch("/{fileKey}", s.handleUpdateFile)
		r.Delete("/{fileKey}", s.handleDeleteFile)
		r.Post("/{fileKey}/mapColumns", s.handleMapColumns)
		r.Get("/{fileKey}/columns", s.handleGetColumns)
		r.Post("/{fileKey}/buildStore", s.handleBuildStore)
	})
	r.Route("/rag", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/multiQuery", s.handleMultiQuery)
		r.Post("/buildGraph", s.handleBuildGraph)
	})
	r.Route("/conversation", func(r chi.Router) {
		r.Get("/quicktalk", s.handleQuickTalk)
		r.Post("/memory", s.handleSaveMessage)
	})
	r.Delete("/session", s.handleDeleteSession)
	r.Get("/health", s.handleHealth)

	return r
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	log.Info().Str("addr", addr).Msg("Starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
