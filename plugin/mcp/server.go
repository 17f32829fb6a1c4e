package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/elevatehq/elevate/internal/profile"
	"github.com/elevatehq/elevate/store"
)

// Server exposes the tool registry over HTTP.
type Server struct {
	e        *echo.Echo
	registry *Registry
	store    *store.Store
	profile  *profile.Profile
}

// NewServer creates the tool server with its routes registered.
func NewServer(profile *profile.Profile, st *store.Store, registry *Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		e:        e,
		registry: registry,
		store:    st,
		profile:  profile,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/mcp_tools", s.listTools)
	e.POST("/mcp_call", s.callTool)

	return s
}

// Start begins serving on the given address. It blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown tool server", "error", err)
	}
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) listTools(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.List())
}

func (s *Server) callTool(c echo.Context) error {
	var request CallToolRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed tool call request")
	}
	if request.ToolName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tool_name is required")
	}

	// Tool-level failures come back as failure results inside a 200; only
	// transport-level faults (panics, bad requests) surface as errors.
	results := s.registry.Invoke(c.Request().Context(), request.ToolName, request.Arguments, s.store)
	return c.JSON(http.StatusOK, CallToolResponse{Results: results})
}
