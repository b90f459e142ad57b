package usersource_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-directory/internal/apperror"
	"github.com/sakif/user-directory/internal/usersource"
)

func newTestClient(t *testing.T, baseURL string) *usersource.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := usersource.Config{BaseURL: baseURL, Timeout: 2 * time.Second}
	c, err := usersource.New(cfg, logger)
	require.NoError(t, err)
	return c
}

func TestListUsers_SendsQueryAndDecodes(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"total_users": 1000,
			"offset": 10,
			"limit": 10,
			"users": [
				{"id": 11, "first_name": "Anna", "last_name": "Smith", "job": "Pilot",
				 "email": "anna@example.com", "latitude": 12.5, "longitude": -7.25,
				 "profile_picture": "https://example.com/11.png", "date_of_birth": "1990-01-02T00:00:00"}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/v1/sample-data/users")
	page, err := c.ListUsers(context.Background(), usersource.Query{Search: "anna", Offset: 10, Limit: 10})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/v1/sample-data/users", got.URL.Path)
	assert.Equal(t, "anna", got.URL.Query().Get("search"))
	assert.Equal(t, "10", got.URL.Query().Get("offset"))
	assert.Equal(t, "10", got.URL.Query().Get("limit"))
	_, err = uuid.Parse(got.Header.Get("X-Request-ID"))
	assert.NoError(t, err, "X-Request-ID should be a UUID")

	assert.Equal(t, 1000, page.TotalUsers)
	require.Len(t, page.Users, 1)
	u := page.Users[0]
	assert.Equal(t, int64(11), u.ID)
	assert.Equal(t, "Anna Smith", u.FullName())
	assert.Equal(t, "Pilot", u.Job)
	assert.Equal(t, 12.5, u.Latitude)
	assert.Equal(t, -7.25, u.Longitude)
	assert.Equal(t, "https://example.com/11.png", u.ProfilePicture)
}

func TestListUsers_EmptySearchIsStillSent(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"users": []}`))
	}))
	defer srv.Close()

	page, err := newTestClient(t, srv.URL).ListUsers(context.Background(), usersource.Query{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Users)
	assert.Contains(t, rawQuery, "search=")
	assert.Contains(t, rawQuery, "offset=0")
}

func TestListUsers_FailuresAreFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"users": [`))
			},
		},
		{
			name: "missing users field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"success": false}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			page, err := newTestClient(t, srv.URL).ListUsers(context.Background(), usersource.Query{Limit: 10})
			assert.Nil(t, page)
			assert.ErrorIs(t, err, apperror.ErrFetchFailure)
			assert.Equal(t, apperror.FetchFailureMessage, err.Error())
		})
	}
}

func TestListUsers_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // nothing listens here any more

	_, err := newTestClient(t, url).ListUsers(context.Background(), usersource.Query{Limit: 10})
	assert.ErrorIs(t, err, apperror.ErrFetchFailure)
}

func TestListUsers_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClient(t, srv.URL).ListUsers(ctx, usersource.Query{Limit: 10})
	assert.ErrorIs(t, err, apperror.ErrFetchFailure)
	assert.True(t, errors.Is(err, context.Canceled), "cause should be kept: %v", err)
}

func TestListUsers_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"users": []}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	c, err := usersource.New(usersource.Config{
		BaseURL:   srv.URL,
		Timeout:   time.Second,
		RateLimit: 20, // one token every 50ms
		RateBurst: 1,
	}, logger)
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.ListUsers(context.Background(), usersource.Query{Limit: 10})
		require.NoError(t, err)
	}
	// First request spends the burst token, the next two wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	_, err := usersource.New(usersource.Config{BaseURL: "ftp://example.com/users"}, logger)
	assert.Error(t, err)

	_, err = usersource.New(usersource.Config{BaseURL: "://nope"}, logger)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := usersource.DefaultConfig()
	assert.Equal(t, usersource.DefaultBaseURL, cfg.BaseURL)
	assert.Positive(t, cfg.Timeout)
}
