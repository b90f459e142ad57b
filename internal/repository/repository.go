package repository

import (
	"context"

	"github.com/sakif/user-directory/internal/model"
)

// ListOptions selects one page of users.
// Search is a case-insensitive substring matched against first name,
// last name and email; empty matches everyone.
type ListOptions struct {
	Search string
	Limit  int
	Offset int
}

// UserRepository stores the population served by the local sample API.
type UserRepository interface {
	Insert(ctx context.Context, users []model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	Count(ctx context.Context, search string) (int, error)
}
