// Package httpapi exposes the document QA services over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Config configures the HTTP server.
type Config struct {
	// CORSOrigins lists the origins allowed to call the API.
	CORSOrigins []string

	// RequestTimeout bounds each request. Zero disables the bound.
	RequestTimeout time.Duration

	// MaxUploadBytes caps request bodies. Zero disables the cap.
	MaxUploadBytes int64

	// Version is reported by GET /.
	Version string
}

// Services are the driving ports the API calls into.
type Services struct {
	Retrieval driving.RetrievalService
	Uploads   driving.UploadService
	QA        driving.QAService
}

// Server is the HTTP front end.
type Server struct {
	echo     *echo.Echo
	services Services
	metrics  *metrics.Metrics
	cfg      Config
}

// New builds the server and registers its routes. m may be nil.
func New(services Services, m *metrics.Metrics, cfg Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		services: services,
		metrics:  m,
		cfg:      cfg,
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.observe)
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
			AllowCredentials: true,
		}))
	}
	if cfg.MaxUploadBytes > 0 {
		e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes, 10)))
	}
	if cfg.RequestTimeout > 0 {
		e.Use(s.timeout)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/", s.root)
	s.echo.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	s.echo.POST("/upload", s.upload)
	s.echo.POST("/query", s.query)
	s.echo.GET("/documents", s.listDocuments)
	s.echo.GET("/documents/:id", s.getDocument)
	s.echo.DELETE("/documents/:id", s.deleteDocument)
	// Singular path kept for older clients.
	s.echo.DELETE("/document/:id", s.deleteDocument)
	s.echo.GET("/stats", s.stats)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	logger.Info("Shutting down HTTP API")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// observe logs and counts every request.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		code := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		} else if err != nil {
			code = statusFor(err)
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(c.Request().Method, route, strconv.Itoa(code))
		logger.Debug("%s %s -> %d (%s)", c.Request().Method, c.Request().URL.Path, code, time.Since(start))
		return err
	}
}

// timeout bounds the request context.
func (s *Server) timeout(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), s.cfg.RequestTimeout)
		defer cancel()
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
