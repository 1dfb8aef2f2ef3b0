package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sebuszqo/FinanceManager/internal/auth"
	"github.com/sebuszqo/FinanceManager/internal/finance/interfaces"
)

type Response struct {
	Message string `json:"message"`
}

type healthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	router          chi.Router
	categoryHandler *interfaces.CategoryHandler
	tokenValidator  auth.TokenValidator
	health          healthChecker
	logger          *slog.Logger
}

func NewServer(categoryHandler *interfaces.CategoryHandler, tokenValidator auth.TokenValidator, health healthChecker, logger *slog.Logger) *Server {
	return &Server{
		categoryHandler: categoryHandler,
		tokenValidator:  tokenValidator,
		health:          health,
		logger:          logger,
		router:          chi.NewRouter(),
	}
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			)
		})
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	stats := s.health.Health(ctx)
	status, readiness := http.StatusOK, "ready"
	if stats["status"] != "up" {
		status, readiness = http.StatusServiceUnavailable, "unavailable"
		s.logger.WarnContext(r.Context(), "readiness check failed", slog.String("error", stats["error"]))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"status":   readiness,
		"database": stats["status"],
	})
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/ready", s.handleReady)

	r.Route("/api/protected", func(r chi.Router) {
		r.Use(auth.IdentityMiddleware(s.tokenValidator, s.logger))
		s.categoryHandler.Routes(r)
	})

	r.NotFound(notFoundHandler)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on port until SIGINT or SIGTERM, then drains in-flight requests within shutdownTimeout.
func (s *Server) Run(port int, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
