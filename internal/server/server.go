// Package server wires handlers, middleware and routes into the two HTTP
// servers this module ships: the user directory and the local sample API.
//
// It is the composition root. main builds the dependencies it owns (the
// session store, the database path) and hands them in here; Start runs the
// listener until SIGINT/SIGTERM and then releases everything in reverse.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/user-directory/internal/handler"
	"github.com/sakif/user-directory/internal/middleware"
	sqliteRepo "github.com/sakif/user-directory/internal/repository/sqlite"
	"github.com/sakif/user-directory/internal/service"
	"github.com/sakif/user-directory/internal/session"
)

const shutdownTimeout = 30 * time.Second

// Server is an HTTP server plus the resources it must release on shutdown.
type Server struct {
	name    string
	port    int
	router  *chi.Mux
	logger  *slog.Logger
	closers []func()
}

// DirectoryConfig configures the directory server.
type DirectoryConfig struct {
	Port int
}

// SampleAPIConfig configures the local sample API.
type SampleAPIConfig struct {
	Port   int
	DBPath string
	// Users is how many generated users an empty database is seeded with.
	Users int
	Seed  uint64
}

func newServer(name string, port int, logger *slog.Logger) *Server {
	s := &Server{
		name:   name,
		port:   port,
		router: chi.NewRouter(),
		logger: logger.With(slog.String("server", name)),
	}

	// Order matters: the request ID must exist before Logger reads it.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	return s
}

// NewDirectory builds the directory server on top of sessions. The store
// is started here and stopped when the server shuts down.
//
// GET  /                        page (or ?fragment=list)
// GET  /api/state               JSON snapshot
// POST /api/search              set search text
// POST /api/load-more           next page
// POST /api/users/{id}/toggle   expand/collapse one user
// POST /api/collapse-all        collapse everything
func NewDirectory(cfg DirectoryConfig, sessions *session.Store, logger *slog.Logger) (*Server, error) {
	s := newServer("directory", cfg.Port, logger)

	h, err := handler.NewDirectoryHandler(sessions, s.logger)
	if err != nil {
		return nil, fmt.Errorf("server: creating directory handler: %w", err)
	}

	s.router.Get("/", h.HandlePage)
	s.router.Get("/healthz", handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/state", h.HandleState)
		r.Post("/search", h.HandleSearch)
		r.Post("/load-more", h.HandleLoadMore)
		r.Post("/users/{id}/toggle", h.HandleToggle)
		r.Post("/collapse-all", h.HandleCollapseAll)
	})

	sessions.Start()
	s.closers = append(s.closers, sessions.Stop)
	return s, nil
}

// NewSampleAPI opens the database at cfg.DBPath, seeds it when empty and
// serves the sample-data contract under /v1/sample-data/users.
func NewSampleAPI(ctx context.Context, cfg SampleAPIConfig, logger *slog.Logger) (*Server, error) {
	s := newServer("sampleapi", cfg.Port, logger)

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}

	users := service.NewUserService(db, s.logger)
	if _, err := users.Seed(ctx, cfg.Users, cfg.Seed); err != nil {
		db.Close()
		return nil, fmt.Errorf("server: seeding database: %w", err)
	}

	h := handler.NewUserHandler(users, s.logger)
	s.router.Get("/healthz", handleHealth)
	s.router.Route("/v1/sample-data/users", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGetByID)
	})

	s.closers = append(s.closers, func() {
		if err := db.Close(); err != nil {
			s.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	})
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases what the server owns, last acquired first. Start calls it
// on the way out; call it directly when Start is never reached.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Start serves until the process receives SIGINT or SIGTERM, then drains
// in-flight requests for up to 30 seconds.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
