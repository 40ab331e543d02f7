package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/api"
	"github.com/tendant/simple-upload/pkg/simpleupload/config"
	"github.com/tendant/simple-upload/pkg/simpleupload/metrics"
	"github.com/tendant/simple-upload/pkg/simpleupload/repo"
	"github.com/tendant/simple-upload/pkg/simpleupload/storage"
)

// HTTPServer exposes the configured upload endpoints over HTTP
type HTTPServer struct {
	config     *config.ServerConfig
	uploaders  map[string]*simpleupload.Uploader
	registry   *storage.Registry
	repository repo.Repository
	gatherer   promclient.Gatherer
	logger     *slog.Logger
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(cfg *config.ServerConfig, uploaders map[string]*simpleupload.Uploader, registry *storage.Registry, repository repo.Repository, gatherer promclient.Gatherer, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{
		config:     cfg,
		uploaders:  uploaders,
		registry:   registry,
		repository: repository,
		gatherer:   gatherer,
		logger:     logger,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for development
	if s.config.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", s.handleHealth)
	if s.config.EnableMetrics {
		r.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	var opts []api.HandlerOption
	opts = append(opts, api.WithLogger(s.logger))
	var auth *jwtauth.JWTAuth
	if s.config.JWTSecret != "" {
		auth = jwtauth.New("HS256", []byte(s.config.JWTSecret), nil)
		opts = append(opts, api.WithJWTAuth(auth))
	}
	r.Mount("/uploads", api.NewHandler(s.uploaders, opts...).Routes())

	r.Route("/presigns", func(r chi.Router) {
		if auth != nil {
			r.Use(jwtauth.Verifier(auth))
			r.Use(jwtauth.Authenticator)
		}
		r.Get("/", s.handleListPresigns)
		r.Get("/{id}", s.handleGetPresign)
	})

	return r
}

// Health check endpoint
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":       "healthy",
		"environment":  s.config.Environment,
		"default_disk": s.config.DefaultDisk,
		"disks":        s.registry.Names(),
	})
}

// handleListPresigns lists audit records, newest first
func (s *HTTPServer) handleListPresigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.ListFilter{
		Endpoint: q.Get("endpoint"),
		Caller:   q.Get("caller"),
		Status:   repo.Status(q.Get("status")),
		Limit:    50,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "Invalid limit.")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "Invalid offset.")
			return
		}
		filter.Offset = n
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid since timestamp.")
			return
		}
		filter.Since = since
	}

	records, err := s.repository.ListPresigns(r.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to list presigns", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Unable to list presigns.")
		return
	}
	if records == nil {
		records = []*repo.PresignRecord{}
	}
	render.JSON(w, r, records)
}

// handleGetPresign returns a single audit record
func (s *HTTPServer) handleGetPresign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid presign id.")
		return
	}

	record, err := s.repository.GetPresign(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrRecordNotFound) {
			writeError(w, r, http.StatusNotFound, "Presign not found.")
			return
		}
		s.logger.Error("Failed to get presign", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Unable to load presign.")
		return
	}
	render.JSON(w, r, record)
}

// Wait flushes pending event deliveries
func (s *HTTPServer) Wait() {
	for _, u := range s.uploaders {
		u.Wait()
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.ErrorResponse{Message: message})
}
