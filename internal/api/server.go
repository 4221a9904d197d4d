// Package api serves the registry statistics and the identity login hook
// over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/api/middleware"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/dataset"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/identity"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/observability"
)

// API route prefix
const apiPrefix = "/api/v1"

// Server shutdown timeout
const shutdownTimeout = 10 * time.Second

// IdentityService registers identities on login.
type IdentityService interface {
	EnsureIdentity(ctx context.Context, email string, legacyAuthorID *int64) (*identity.Login, error)
}

// Dependencies are the components the server reads from. Identities, Metrics
// and Ping are optional; the matching routes are not registered without them.
type Dependencies struct {
	Datasets   dataset.Provider
	Identities IdentityService
	Metrics    *observability.Metrics
	Ping       func(ctx context.Context) error
}

// Server is the HTTP API of the registry engine.
type Server struct {
	echo      *echo.Echo
	settings  *conf.DashboardSettings
	deps      Dependencies
	logger    logger.Logger
	startTime time.Time
}

// New creates a Server with every route registered.
func New(settings *conf.DashboardSettings, deps Dependencies, log logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	s := &Server{
		echo:      e,
		settings:  settings,
		deps:      deps,
		logger:    log.Module("api"),
		startTime: time.Now(),
	}

	e.Use(echomw.Recover())
	e.Use(middleware.CorrelationID())
	e.Use(middleware.NewRequestLoggerWithSkipper(s.logger, middleware.SkipPaths("/health", "/metrics")))

	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	s.echo.GET("/health", s.HealthCheck)
	if s.deps.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	v1 := s.echo.Group(apiPrefix)

	stats := v1.Group("/stats")
	stats.GET("/summary", s.GetSummary)
	stats.GET("/overview", s.GetOverview)
	stats.GET("/filters", s.GetFilters)
	stats.GET("/monthly/:series", s.GetMonthly)

	if s.deps.Identities != nil {
		v1.POST("/identities/login", s.Login)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on the configured listen address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server starting", logger.String("listen", s.settings.Listen))
		if err := s.echo.Start(s.settings.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("api server shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// HealthCheck reports liveness and, when configured, store reachability.
func (s *Server) HealthCheck(c echo.Context) error {
	resp := map[string]any{
		"status": "healthy",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.deps.Ping == nil {
		return c.JSON(http.StatusOK, resp)
	}

	if err := s.deps.Ping(c.Request().Context()); err != nil {
		s.logger.Warn("store ping failed", logger.Error(err))
		resp["status"] = "unhealthy"
		resp["store"] = "unreachable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	resp["store"] = "ok"
	return c.JSON(http.StatusOK, resp)
}
