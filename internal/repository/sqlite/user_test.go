package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/user-directory/internal/apperror"
	"github.com/sakif/user-directory/internal/model"
	"github.com/sakif/user-directory/internal/repository"
)

// newTestDB opens a fresh in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *DB, users ...model.User) {
	t.Helper()
	if err := db.Insert(context.Background(), users); err != nil {
		t.Fatalf("failed to seed users: %v", err)
	}
}

var (
	anna  = model.User{ID: 1, FirstName: "Anna", LastName: "Karenina", Email: "anna@example.com", Job: "Writer", Latitude: 55.75, Longitude: 37.61}
	annie = model.User{ID: 2, FirstName: "Annie", LastName: "Hall", Email: "annie@example.com", Job: "Singer"}
	bob   = model.User{ID: 3, FirstName: "Bob", LastName: "Dylan", Email: "bob@example.com", Job: "Poet"}
	carol = model.User{ID: 4, FirstName: "Carol", LastName: "Danvers", Email: "carol_d@example.com", Job: "Pilot"}
)

// =========================================================================
// INSERT / GET
// =========================================================================

func TestInsertAndGetByID(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, anna)

	got, err := db.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if *got != anna {
		t.Errorf("GetByID() = %+v, want %+v", *got, anna)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), 99)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestInsert_DuplicateIDRollsBackBatch(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, anna)

	err := db.Insert(context.Background(), []model.User{bob, anna})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Insert() error = %v, want ErrConflict", err)
	}

	// bob was first in the failed batch and must not have been kept.
	if _, err := db.GetByID(context.Background(), bob.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID(bob) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST / COUNT
// =========================================================================

func TestList_Search(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, anna, annie, bob, carol)

	tests := []struct {
		name    string
		search  string
		wantIDs []int64
	}{
		{name: "empty matches all", search: "", wantIDs: []int64{1, 2, 3, 4}},
		{name: "first name prefix", search: "ann", wantIDs: []int64{1, 2}},
		{name: "case insensitive", search: "ANNA", wantIDs: []int64{1}},
		{name: "last name", search: "dylan", wantIDs: []int64{3}},
		{name: "email", search: "carol_d@", wantIDs: []int64{4}},
		{name: "underscore is literal", search: "_", wantIDs: []int64{4}},
		{name: "percent is literal", search: "%", wantIDs: []int64{}},
		{name: "surrounding spaces ignored", search: "  bob ", wantIDs: []int64{3}},
		{name: "job is not searched", search: "pilot", wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := db.List(context.Background(), repository.ListOptions{Search: tt.search, Limit: 10})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			gotIDs := make([]int64, 0, len(users))
			for _, u := range users {
				gotIDs = append(gotIDs, u.ID)
			}
			if len(gotIDs) != len(tt.wantIDs) {
				t.Fatalf("List(%q) ids = %v, want %v", tt.search, gotIDs, tt.wantIDs)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.wantIDs[i] {
					t.Errorf("List(%q) ids = %v, want %v", tt.search, gotIDs, tt.wantIDs)
					break
				}
			}

			n, err := db.Count(context.Background(), tt.search)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if n != len(tt.wantIDs) {
				t.Errorf("Count(%q) = %d, want %d", tt.search, n, len(tt.wantIDs))
			}
		})
	}
}

func TestList_SearchFoldsNonASCII(t *testing.T) {
	db := newTestDB(t)
	olga := model.User{ID: 7, FirstName: "Ölga", LastName: "Ñuñez", Email: "olga@example.com"}
	seed(t, db, anna, olga)

	for _, search := range []string{"Ölga", "ölga", "ÖLGA", "ñuñez", "ÑUÑ"} {
		users, err := db.List(context.Background(), repository.ListOptions{Search: search, Limit: 10})
		if err != nil {
			t.Fatalf("List(%q) error = %v", search, err)
		}
		if len(users) != 1 || users[0].ID != olga.ID {
			t.Errorf("List(%q) = %v, want only user %d", search, users, olga.ID)
		}

		n, err := db.Count(context.Background(), search)
		if err != nil {
			t.Fatalf("Count(%q) error = %v", search, err)
		}
		if n != 1 {
			t.Errorf("Count(%q) = %d, want 1", search, n)
		}
	}
}

func TestList_Pagination(t *testing.T) {
	db := newTestDB(t)
	users := make([]model.User, 25)
	for i := range users {
		users[i] = model.User{ID: int64(i + 1), FirstName: "User", LastName: "Paged"}
	}
	seed(t, db, users...)

	tests := []struct {
		name      string
		opts      repository.ListOptions
		wantLen   int
		wantFirst int64
	}{
		{name: "first page", opts: repository.ListOptions{Limit: 10}, wantLen: 10, wantFirst: 1},
		{name: "second page", opts: repository.ListOptions{Limit: 10, Offset: 10}, wantLen: 10, wantFirst: 11},
		{name: "partial last page", opts: repository.ListOptions{Limit: 10, Offset: 20}, wantLen: 5, wantFirst: 21},
		{name: "past the end", opts: repository.ListOptions{Limit: 10, Offset: 30}, wantLen: 0},
		{name: "zero limit uses default", opts: repository.ListOptions{}, wantLen: 10, wantFirst: 1},
		{name: "negative offset is clamped", opts: repository.ListOptions{Limit: 5, Offset: -5}, wantLen: 5, wantFirst: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.List(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].ID != tt.wantFirst {
				t.Errorf("first id = %d, want %d", got[0].ID, tt.wantFirst)
			}
		})
	}
}

func TestList_EmptyDatabaseReturnsEmptySlice(t *testing.T) {
	db := newTestDB(t)

	users, err := db.List(context.Background(), repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if users == nil {
		t.Error("List() returned nil; want an empty slice so JSON encodes []")
	}
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Errorf("second migrate() error = %v", err)
	}
}
