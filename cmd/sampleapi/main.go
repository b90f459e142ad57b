// Command sampleapi serves a local copy of the sample-data users API from
// SQLite, so the directory can be developed and demoed offline:
//
//	go run ./cmd/sampleapi &
//	USER_SOURCE_URL=http://localhost:8081/v1/sample-data/users go run ./cmd/server
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/user-directory/internal/config"
	"github.com/sakif/user-directory/internal/server"
)

// seed fixes the generated population so every fresh database is identical.
const seed = 20240101

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.Logger()

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.NewSampleAPI(context.Background(), server.SampleAPIConfig{
		Port:   cfg.SampleAPIPort,
		DBPath: cfg.DBPath,
		Users:  cfg.SampleUsers,
		Seed:   seed,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("sample API ready", slog.String("database", cfg.DBPath))

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
