// Package api serves the public read endpoints of the domain registry.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mvxid/indexer/internal/cache"
	"github.com/mvxid/indexer/internal/store"
	"github.com/rs/zerolog"
)

// Server exposes registry state over HTTP. All endpoints are read-only;
// writes happen exclusively through the ingestion pipeline.
type Server struct {
	store  *store.Store
	cache  cache.KeyValue
	logger zerolog.Logger
}

// NewServer creates the read API server
func NewServer(s *store.Store, kv cache.KeyValue, logger zerolog.Logger) *Server {
	return &Server{
		store:  s,
		cache:  kv,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Handler builds the route tree
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/domains", s.handleDomains)
	r.Get("/domains/{name}", s.handleDomain)
	r.Get("/domains/{name}/profile", s.handleProfile)
	r.Get("/domain/{name}/subdomain", s.handleSubdomains)
	r.Get("/accounts/{address}", s.handleAccountDomains)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
