// Command server runs the user directory: a searchable, paginated list of
// users fetched from the sample-data API.
//
// Configuration comes from the environment (and an optional .env file);
// see internal/config for the variables and their defaults.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/user-directory/internal/config"
	"github.com/sakif/user-directory/internal/controller"
	"github.com/sakif/user-directory/internal/server"
	"github.com/sakif/user-directory/internal/session"
	"github.com/sakif/user-directory/internal/usersource"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.Logger()

	source, err := usersource.New(cfg.SourceConfig(), logger)
	if err != nil {
		logger.Error("failed to create user source", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("using user source", slog.String("url", cfg.SourceURL))

	// Each browser session gets its own controller over the shared client,
	// so the rate limit applies across all visitors.
	sessions := session.NewStore(func() *controller.Controller {
		return controller.New(source, controller.Options{
			PageSize: cfg.PageSize,
			Debounce: cfg.Debounce,
		}, logger)
	}, session.Config{TTL: cfg.SessionTTL, MaxSessions: cfg.MaxSessions}, logger)

	srv, err := server.NewDirectory(server.DirectoryConfig{Port: cfg.Port}, sessions, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and stops the session store on exit.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
