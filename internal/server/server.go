package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
	mw "github.com/DjordjeVuckovic/metadata-ingest/pkg/middleware"
	pkgserver "github.com/DjordjeVuckovic/metadata-ingest/pkg/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	GracefulShutdownTimeout = 10 * time.Second
)

type Server struct {
	Echo *echo.Echo

	cfg           *Config
	healthChecker pkgserver.HealthChecker
	shutdown      chan struct{}
}

func New(cfg *Config, healthChecker pkgserver.HealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.DisableHTTP2 = !cfg.UseHttp2

	return &Server{
		Echo:          e,
		cfg:           cfg,
		healthChecker: healthChecker,
		shutdown:      make(chan struct{}),
	}
}

func (s *Server) SetupMiddlewares() *Server {
	s.Echo.Use(mw.Logger())
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.CorsOrigins,
		AllowMethods: []string{http.MethodGet},
	}))
	return s
}

func (s *Server) SetupErrorHandler() *Server {
	s.Echo.HTTPErrorHandler = apperr.GlobalErrorHandler()
	return s
}

func (s *Server) SetupHealthChecks(path string) *Server {
	s.Echo.GET(path, func(c echo.Context) error {
		if s.healthChecker == nil || s.healthChecker.Healthy(c.Request().Context()) {
			return c.JSON(http.StatusOK, map[string]string{"status": "UP"})
		}
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
	})
	return s
}

// ShutdownSignal is closed once the server starts shutting down.
func (s *Server) ShutdownSignal() <-chan struct{} {
	return s.shutdown
}

// Start serves until ctx is done, then shuts down gracefully. Signal handling
// belongs to the caller so one interrupt stops the whole process.
func (s *Server) Start(ctx context.Context) error {
	defer close(s.shutdown)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Echo.Start(":" + s.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("Shutting down status server", "port", s.cfg.Port)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	return s.Echo.Shutdown(shutdownCtx)
}
