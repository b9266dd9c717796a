// Package insightapi serves insight generation over HTTP so that dashboards
// configured with the remote provider can share one generator.
package insightapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"regdash/domain/insight"
	"regdash/internal/errors"
	"regdash/ports"
)

// maxBodyBytes bounds the request body; a summary is a few hundred bytes
const maxBodyBytes = 64 << 10

// Config holds insight API settings
type Config struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Handler answers insight requests with the configured generator
type Handler struct {
	generator ports.InsightGenerator
}

// NewHandler creates a handler around generator
func NewHandler(generator ports.InsightGenerator) *Handler {
	return &Handler{generator: generator}
}

// RegisterRoutes mounts the API on r
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/insights", h.handleInsights)
	})
}

// NewRouter builds the full middleware stack around a handler
func NewRouter(cfg Config, generator ports.InsightGenerator) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	NewHandler(generator).RegisterRoutes(r)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req insight.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("request body is not a valid insight request: "+err.Error()))
		return
	}
	if _, err := req.Summary(); err != nil {
		writeError(w, http.StatusBadRequest, errors.ValidationError(err.Error()))
		return
	}

	start := time.Now()
	rec, err := h.generator.Generate(r.Context(), req)
	if err != nil {
		log.Printf("[InsightAPI] %s generation failed after %v: %v", middleware.GetReqID(r.Context()), time.Since(start), err)
		status := http.StatusBadGateway
		if r.Context().Err() != nil {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, errors.InsightFailed(err))
		return
	}

	log.Printf("[InsightAPI] %s insights for %q: score %d (%s) in %v",
		middleware.GetReqID(r.Context()), req.DependentVariable, rec.ModelHealth.Score, rec.ModelHealth.Status, time.Since(start))
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[InsightAPI] error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": errors.GetCode(err)})
}

// Server runs the insight API on its own listener
type Server struct {
	addr    string
	handler http.Handler
}

// NewServer creates a server for addr
func NewServer(addr string, cfg Config, generator ports.InsightGenerator) *Server {
	return &Server{addr: addr, handler: NewRouter(cfg, generator)}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting regdash insight API on http://%s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("[InsightAPI] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
