package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/user-directory/internal/apperror"
	"github.com/sakif/user-directory/internal/model"
	"github.com/sakif/user-directory/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, first_name, last_name, email, phone, gender, date_of_birth, job,
	street, city, state, zipcode, country, latitude, longitude, profile_picture`

// searchClause matches the sample API's search semantics: a case-insensitive
// substring match on first name, last name or email. Both sides are folded
// with fold() (see sqlite.go) so non-ASCII letters compare too.
const searchClause = `(? = '' OR fold(first_name) LIKE ? ESCAPE '\'
	OR fold(last_name) LIKE ? ESCAPE '\'
	OR fold(email) LIKE ? ESCAPE '\')`

// Insert adds users in a single transaction, keeping their IDs.
// An ID that already exists fails the whole batch.
func (db *DB) Insert(ctx context.Context, users []model.User) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning insert: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range users {
		_, err := stmt.ExecContext(ctx,
			u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.Gender, u.DateOfBirth, u.Job,
			u.Street, u.City, u.State, u.Zipcode, u.Country, u.Latitude, u.Longitude, u.ProfilePicture,
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return apperror.Conflict(fmt.Sprintf("user with id %d already exists", u.ID))
			}
			return fmt.Errorf("sqlite: inserting user %d: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing insert: %w", err)
	}
	return nil
}

// GetByID retrieves a single user.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// List returns one page of users ordered by ID.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	args := append(searchArgs(opts.Search), limit, offset)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE `+searchClause+`
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Count returns how many users match search.
func (db *DB) Count(ctx context.Context, search string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE `+searchClause,
		searchArgs(search)...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return n, nil
}

// searchArgs fills the four placeholders of searchClause.
func searchArgs(search string) []any {
	search = strings.ToLower(strings.TrimSpace(search))
	pattern := "%" + escapeLike(search) + "%"
	return []any{search, pattern, pattern, pattern}
}

// escapeLike makes %, _ and the escape character itself match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Gender, &u.DateOfBirth, &u.Job,
		&u.Street, &u.City, &u.State, &u.Zipcode, &u.Country, &u.Latitude, &u.Longitude, &u.ProfilePicture,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
