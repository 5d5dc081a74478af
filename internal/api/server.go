// Package api exposes the question answering service over HTTP with a small
// JSON surface: query, course stats and session teardown.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/apsinha/coursechat/internal/app"
)

// QueryService is the slice of the application the API serves.
type QueryService interface {
	Query(ctx context.Context, text string, sessionID *uuid.UUID) (*app.QueryResult, error)
	Stats() app.Stats
	ClearSession(id uuid.UUID)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux     *http.ServeMux
	service QueryService
	logger  *slog.Logger
}

// NewServer creates the server with all routes configured.
func NewServer(service QueryService, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, errors.New("query service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{service: service, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/courses", s.handleCourses)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleClearSession)

	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health stays outside the middleware stack so probes don't flood the log.
	top := http.NewServeMux()
	top.HandleFunc("GET /health", s.handleHealth)
	top.Handle("/", handler)

	s.mux = top
	return s, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
