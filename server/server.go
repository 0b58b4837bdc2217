// Package server hosts the browser editor client and the image endpoints
// it talks to.
//
// Routes:
//
//	POST /submit   optimise a base64 image payload, answer {"imagesource": ...}
//	POST /api      echo the submitted JSON body
//	POST /edit     apply editor requests to an image payload
//	GET  /...      client files; unknown paths redirect to /#<path>
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"picedit/config"
)

type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler http.Handler
}

func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cfg: cfg, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /submit", s.handleSubmit)
	mux.HandleFunc("POST /api", s.handleAPI)
	mux.HandleFunc("POST /edit", s.handleEdit)
	mux.Handle("/", s.static())

	middlewares := []Middleware{Recovery(logger), Logging(logger), CORS()}
	if cfg.Server.Gzip {
		middlewares = append(middlewares, Gzip())
	}
	s.handler = Chain(middlewares...)(mux)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server started", "addr", ln.Addr().String(), "environment", s.cfg.Environment,
		"client", s.cfg.Server.ClientRoot)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not shut down server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
