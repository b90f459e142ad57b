// Package service contains the business rules of the local sample API.
//
// Handler (HTTP) → Service (rules) → Repository (SQL). The service takes a
// repository.UserRepository interface, so tests can pass an in-memory fake
// and the handler never sees SQL.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/user-directory/internal/apperror"
	"github.com/sakif/user-directory/internal/model"
	"github.com/sakif/user-directory/internal/repository"
	"github.com/sakif/user-directory/internal/sampledata"
)

// Paging limits, mirroring what the public sample-data API accepts.
const (
	DefaultListLimit = 10
	MaxListLimit     = 100
	MaxSearchLength  = 100
)

// seedBatch bounds how many rows go into one insert transaction.
const seedBatch = 500

// UserService handles business logic for the sample user population.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// List returns one page of users matching search, shaped like the public
// API's response.
//
// Out-of-range paging values are clamped rather than rejected: limit to
// 1..MaxListLimit (0 means default), a negative offset to 0.
func (s *UserService) List(ctx context.Context, search string, limit, offset int) (*model.UserPage, error) {
	search = strings.TrimSpace(search)
	if len(search) > MaxSearchLength {
		return nil, apperror.ValidationFailed("search",
			fmt.Sprintf("search must be %d characters or less", MaxSearchLength))
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	total, err := s.repo.Count(ctx, search)
	if err != nil {
		s.logger.Error("failed to count users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("counting users: %w", err)
	}

	users, err := s.repo.List(ctx, repository.ListOptions{
		Search: search,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}

	return &model.UserPage{
		Success:    true,
		Message:    "Sample data for testing and learning purposes",
		TotalUsers: total,
		Offset:     offset,
		Limit:      limit,
		Users:      users,
	}, nil
}

// GetByID returns a single user, or apperror.ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "user id must be a positive integer")
	}
	return s.repo.GetByID(ctx, id)
}

// Seed fills an empty store with n generated users. A store that already
// holds users is left alone, so restarting the sample API keeps its data.
// It returns how many users were inserted.
func (s *UserService) Seed(ctx context.Context, n int, seed uint64) (int, error) {
	existing, err := s.repo.Count(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("counting users before seeding: %w", err)
	}
	if existing > 0 || n <= 0 {
		s.logger.Info("skipping seed", slog.Int("existing", existing))
		return 0, nil
	}

	users := sampledata.Generate(n, seed)
	for start := 0; start < len(users); start += seedBatch {
		end := min(start+seedBatch, len(users))
		if err := s.repo.Insert(ctx, users[start:end]); err != nil {
			return start, fmt.Errorf("seeding users %d-%d: %w", start+1, end, err)
		}
	}

	s.logger.Info("seeded sample users", slog.Int("count", len(users)))
	return len(users), nil
}
