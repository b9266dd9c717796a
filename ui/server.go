package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"regdash/adapters/excel"
	"regdash/app"
	"regdash/ui/middleware"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

// Server is the dashboard web server
type Server struct {
	router    *gin.Engine
	dashboard *app.DashboardService
	templates *template.Template
	table     excel.TableOptions
}

// Options configures the dashboard server
type Options struct {
	GinMode string
	Table   excel.TableOptions // export defaults, overridable per request
}

// NewServer creates the dashboard server around a dashboard service
func NewServer(dashboard *app.DashboardService, opts Options) (*Server, error) {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if opts.Table.Decimals == 0 {
		opts.Table = excel.DefaultTableOptions()
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.Default(),
		dashboard: dashboard,
		templates: templates,
		table:     opts.Table,
	}
	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	templatesFS, err := fs.Sub(embeddedFiles, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create templates filesystem: %w", err)
	}
	t, err := template.New("").Funcs(funcMap()).ParseFS(templatesFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	log.Printf("[TemplateInit] parsed %d templates", len(t.Templates()))
	return t, nil
}

// setupMiddleware serves the embedded static assets
func (s *Server) setupMiddleware() error {
	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create static filesystem: %w", err)
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	// Pages
	s.router.GET("/", s.handleIndex)
	s.router.GET("/sessions/:id", middleware.SessionID(), s.handleSessionPage)
	s.router.GET("/healthz", s.handleHealth)

	// JSON API
	api := s.router.Group("/api")
	api.GET("/variables", s.handleVariables)
	api.POST("/sessions", s.handleCreateSession)

	sessions := api.Group("/sessions/:id", middleware.SessionID())
	sessions.GET("", s.handleGetSession)
	sessions.POST("/kind", s.handleSetKind)
	sessions.POST("/dependent", s.handleSetDependent)
	sessions.POST("/independent", s.handleAddIndependent)
	sessions.DELETE("/independent/:name", s.handleRemoveIndependent)
	sessions.POST("/advance", s.handleAdvance)
	sessions.POST("/back", s.handleBack)
	sessions.POST("/insights", s.handleInsights)
	sessions.DELETE("/insights", s.handleCloseInsights)
	sessions.GET("/export.xlsx", s.handleExport)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting regdash dashboard on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("[Dashboard] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
