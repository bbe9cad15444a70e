package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ticketsmith/internal/config"
	"github.com/ticketsmith/internal/enhance"
	"github.com/ticketsmith/internal/jira"
	"github.com/ticketsmith/internal/llm"
	"github.com/ticketsmith/internal/tenant"
)

// trackerFactory builds a tracker client for a Jira instance URL.
// Replaceable in tests.
type trackerFactory func(serverURL string) (enhance.Tracker, error)

// Server is the Connect app's HTTP surface.
type Server struct {
	echo       *echo.Echo
	cfg        *config.Config
	registry   *tenant.Registry
	policy     string
	generator  llm.Generator
	newTracker trackerFactory
}

// NewServer creates the API server and wires its routes.
func NewServer(cfg *config.Config, registry *tenant.Registry, policy string) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware. CORS stays permissive: the panel iframe is served into
	// arbitrary tenant Jira origins.
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
		MaxAge:       3600,
	}))

	generator := llm.NewOllamaClient(
		cfg.Ollama.BaseURL,
		cfg.Ollama.Model,
		llm.Options{
			Temperature: cfg.Ollama.Temperature,
			TopP:        cfg.Ollama.TopP,
			NumCtx:      cfg.Ollama.NumCtx,
		},
		time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second,
	)

	server := &Server{
		echo:      e,
		cfg:       cfg,
		registry:  registry,
		policy:    policy,
		generator: generator,
		newTracker: func(serverURL string) (enhance.Tracker, error) {
			return jira.NewClient(serverURL, cfg.Jira.Email, cfg.Jira.APIToken)
		},
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "")
	})
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/descriptor", s.handleDescriptor)
	s.echo.GET("/atlassian-connect.json", s.handleDescriptor)
	s.echo.GET("/panel", s.handlePanel)

	// Lifecycle callbacks from Jira are authenticated by the handshake
	// itself, not by a tenant token.
	s.echo.POST("/installed", s.handleInstalled)
	s.echo.POST("/uninstalled", s.handleUninstalled)

	enhanceRoute := s.echo.Group("/enhance")
	enhanceRoute.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(5),
			Burst:     10,
			ExpiresIn: 3 * time.Minute,
		},
	)))
	if s.cfg.Server.RequireAuth {
		enhanceRoute.Use(RequireTenant(s.registry))
	}
	enhanceRoute.GET("", s.handleEnhance)
}

// Start begins the API server and blocks until interrupted.
func (s *Server) Start() error {
	go func() {
		addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("shutting down the server")
		}
	}()

	log.Info().Int("port", s.cfg.Server.Port).Int("tenants", s.registry.Len()).
		Msg("Ticketsmith server started")

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
