// Package server exposes the companion over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/easeaico/tryangel/internal/companion"
	"github.com/easeaico/tryangel/internal/metrics"
	"github.com/easeaico/tryangel/internal/voice"
)

// Config holds HTTP server settings.
type Config struct {
	Addr string
	// SpeakRate and SpeakBurst bound /speak calls per user.
	SpeakRate  float64
	SpeakBurst int
}

// Server serves the companion API.
type Server struct {
	echo      *echo.Echo
	companion *companion.Service
	voices    *voice.Library
	limiter   *userLimiter
	config    Config
}

// NewServer wires routes and middleware around svc.
func NewServer(svc *companion.Service, voices *voice.Library, cfg Config) (*Server, error) {
	if svc == nil {
		return nil, errors.New("companion service cannot be nil")
	}
	if voices == nil {
		return nil, errors.New("voice library cannot be nil")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:5000"
	}
	if cfg.SpeakRate <= 0 {
		cfg.SpeakRate = 1
	}
	if cfg.SpeakBurst < 1 {
		cfg.SpeakBurst = 5
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(metrics.Middleware())

	s := &Server{
		echo:      e,
		companion: svc,
		voices:    voices,
		limiter:   newUserLimiter(cfg.SpeakRate, cfg.SpeakBurst),
		config:    cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/speak", s.handleSpeak)
	s.echo.GET("/voices/:filename", s.handleVoice)
	s.echo.GET("/memory", s.handleMemory)

	s.echo.POST("/feedback", s.handleFeedback)
	s.echo.POST("/comprehension", s.handleComprehension)
	s.echo.GET("/profile", s.handleProfile)
	s.echo.GET("/insights", s.handleInsights)
	s.echo.POST("/risk", s.handleRisk)

	s.echo.POST("/memories", s.handleRecordMemory)
	s.echo.GET("/memories", s.handleRecallMemories)

	s.echo.GET("/jokes", s.handleJoke)
	s.echo.GET("/tips", s.handleTip)
	s.echo.GET("/reassurance", s.handleReassurance)
	s.echo.POST("/context", s.handleContext)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("starting http server", "addr", s.config.Addr)
	if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve http: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			slog.Info("http request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
			return err
		}
	}
}
