// Package server exposes the browser engine over HTTP: the listing
// API consumed by the web frontend plus health and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hausakte/hausakte/internal/api"
	"github.com/hausakte/hausakte/internal/browser"
	"github.com/hausakte/hausakte/internal/logging"
	"github.com/hausakte/hausakte/internal/metrics"
	"github.com/hausakte/hausakte/internal/models"
	"github.com/hausakte/hausakte/internal/storage"
)

// Server serves the engine API.
type Server struct {
	controller *browser.Controller
	metrics    *metrics.Metrics
	logger     *logging.Logger
	httpServer *http.Server
}

// New creates the server listening on addr.
func New(addr string, controller *browser.Controller, m *metrics.Metrics) *Server {
	s := &Server{
		controller: controller,
		metrics:    m,
		logger:     logging.NewLogger("server"),
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/listing", s.handleListing)
	})

	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listingResponse is the wire shape of a folder listing.
type listingResponse struct {
	Path        string                  `json:"path"`
	URL         string                  `json:"url"`
	Files       []models.StorageObject  `json:"files"`
	Folders     []models.VirtualFolder  `json:"folders"`
	Breadcrumbs []models.BreadcrumbItem `json:"breadcrumbs"`
	TotalSize   int64                   `json:"totalSize"`
}

// handleListing loads the listing for ?path=. The controller applies
// its usual coalescing and retry policy; concurrent requests for the
// same path share one backend call.
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "Parameter path fehlt")
		return
	}
	if storage.PathUser(path) == "" {
		writeError(w, http.StatusBadRequest, "Ungültiger Pfad")
		return
	}

	listing, err := s.controller.Navigate(r.Context(), path, browser.Options{SuppressHistory: true})
	if err != nil {
		status := http.StatusBadGateway
		if api.IsAuthError(err) {
			status = http.StatusUnauthorized
		}
		s.logger.Error().Str("path", path).Err(err).Msg("Listing request failed")
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, listingResponse{
		Path:        listing.Path,
		URL:         storage.PathToURL(listing.Path),
		Files:       listing.Files,
		Folders:     listing.Folders,
		Breadcrumbs: listing.Breadcrumbs,
		TotalSize:   listing.TotalSize,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
