// Package server hosts the public HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/elevatehq/elevate/ai/metrics"
	"github.com/elevatehq/elevate/internal/profile"
	apiv1 "github.com/elevatehq/elevate/server/router/api/v1"
	"github.com/elevatehq/elevate/store"
)

type Server struct {
	e *echo.Echo

	Profile *profile.Profile
	Store   *store.Store

	apiV1 *apiv1.APIV1Service
}

func NewServer(profile *profile.Profile, st *store.Store, apiV1 *apiv1.APIV1Service, exporter *metrics.PrometheusExporter) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))

	s := &Server{
		e:       e,
		Profile: profile,
		Store:   st,
		apiV1:   apiV1,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	if exporter != nil {
		e.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	}

	apiV1.Register(e)

	return s
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	return s.e.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server shutdown complete")
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler {
	return s.e
}
