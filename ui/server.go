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

	"qareport/adapters/coercer"
	"qareport/adapters/webhook"
	"qareport/internal/config"
	"qareport/internal/session"
	"qareport/ui/middleware"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

// Server is the report builder web UI
type Server struct {
	router    *gin.Engine
	templates *template.Template
	config    *config.Config
	store     *session.Store
	reader    session.Ingester
	coercer   *coercer.TypeCoercer
	webhook   *webhook.Client
	api       http.Handler
}

// NewServer wires the UI to its session store, file reader and optional JSON API
func NewServer(cfg *config.Config, store *session.Store, reader session.Ingester, api http.Handler) (*Server, error) {
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:  gin.New(),
		config:  cfg,
		store:   store,
		reader:  reader,
		coercer: coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()),
		api:     api,
	}
	if cfg.Webhook.Enabled() {
		s.webhook = webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Timeout)
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	templatesFS, err := fs.Sub(embeddedFiles, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create templates filesystem: %w", err)
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	log.Printf("[TemplateInit] parsed templates: %s", templates.DefinedTemplates())
	return templates, nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	if s.api != nil {
		s.router.Any("/api/*path", gin.WrapH(http.StripPrefix("/api", s.api)))
	}

	pages := s.router.Group("/", middleware.EnsureSession(s.store))
	pages.GET("/", s.handleIndex)
	pages.POST("/report/upload", s.handleUpload)
	pages.POST("/report/aggregate", s.handleAggregate)
	pages.POST("/report/filter", s.handleFilter)
	pages.GET("/report/click", s.handleClick)
	pages.POST("/report/filter/clear", s.handleClearFilter)
	pages.GET("/report/export", s.handleExport)
	pages.GET("/report/chart", s.handleChart)

	pages.GET("/ai-report", s.handleAIReportForm)
	pages.POST("/ai-report", s.handleAIReportSubmit)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting report builder on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("Shutting down report builder")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}
