// Package controller holds the list state machine behind the user directory:
// the search text, the pagination offset and the accumulated results.
//
// STATE MACHINE:
//
//	idle ──(search settled | load more)──▶ loading ──(success | failure)──▶ idle
//
// All state lives in one struct owned by the Controller and is only changed
// through the exported operations, so the invariants (a new search text
// resets the offset, items are replaced on offset 0 and appended otherwise)
// are enforced in exactly one place.
//
// CONCURRENCY:
// Fetches run on their own goroutines and the debounce timer fires on
// another, so every field is guarded by a single mutex. Callers never block
// on the network: an operation records intent, starts the fetch and returns.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/user-directory/internal/apperror"
	"github.com/sakif/user-directory/internal/debounce"
	"github.com/sakif/user-directory/internal/model"
	"github.com/sakif/user-directory/internal/usersource"
)

const (
	DefaultPageSize = 10
	DefaultDebounce = 300 * time.Millisecond
)

// Options configures a Controller. Zero values fall back to the defaults.
type Options struct {
	PageSize int
	Debounce time.Duration
	// OnChange, if set, receives a snapshot after every state transition.
	// It is called without the controller lock held, possibly from a
	// background goroutine.
	OnChange func(State)
}

// queryState is what the user asked for.
type queryState struct {
	searchText string
	offset     int
	pageSize   int
}

// resultState is what the user sees.
type resultState struct {
	items      []model.User
	expanded   map[int64]struct{}
	loading    bool
	lastError  string
	totalUsers int
}

// Controller turns user intents into at most one logical fetch per settled
// query and keeps the accumulated results consistent.
type Controller struct {
	source    usersource.Source
	logger    *slog.Logger
	onChange  func(State)
	debouncer *debounce.Debouncer

	// ctx lives as long as the controller; Close cancels it and with it
	// every in-flight request.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	query  queryState
	result resultState
	seq    uint64 // sequence number of the most recently issued fetch
	// searchPending is set from SetSearchText until the debounced fetch has
	// started, covering the gap after the timer fires.
	searchPending bool
	mounted       bool
	closed        bool
}

// New creates a Controller in its initial state: empty search, offset 0,
// loading. Nothing is fetched until Mount is called.
func New(source usersource.Source, opts Options, logger *slog.Logger) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		source:    source,
		logger:    logger,
		onChange:  opts.OnChange,
		debouncer: debounce.New(opts.Debounce),
		ctx:       ctx,
		cancel:    cancel,
		query: queryState{
			pageSize: opts.PageSize,
		},
		result: resultState{
			expanded: make(map[int64]struct{}),
			loading:  true,
		},
	}
}

// Mount issues the initial fetch for the first page of the unfiltered list.
// Calling it again has no effect.
func (c *Controller) Mount() {
	c.mu.Lock()
	if c.mounted || c.closed {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.mu.Unlock()

	c.fetchPage("", 0)
}

// SetSearchText records a new search text, resets the offset and schedules a
// debounced fetch of the first page. A burst of calls inside the debounce
// window produces a single fetch for the last text.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query.searchText = text
	c.query.offset = 0
	c.searchPending = true
	// Whatever is in flight now belongs to the previous query.
	c.seq++
	c.mu.Unlock()

	c.debouncer.Schedule(func() {
		// Read the text at fire time rather than capturing it: the trailing
		// call must use whatever the user typed last.
		c.mu.Lock()
		text := c.query.searchText
		c.mu.Unlock()

		c.fetchPage(text, 0)
	})
	c.notify()
}

// LoadMore advances the offset by one page and fetches it immediately.
//
// It refuses with apperror.ErrConflict while a fetch is pending, which
// includes a search that is still inside its debounce window: loading the
// next page of a query that is about to be replaced would be wasted work.
func (c *Controller) LoadMore() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperror.Conflict("the list is closed")
	}
	if c.searchPending {
		c.mu.Unlock()
		return apperror.Conflict("a search is pending")
	}
	if c.result.loading {
		c.mu.Unlock()
		return apperror.Conflict("a fetch is already in progress")
	}
	c.query.offset += c.query.pageSize
	text, offset := c.query.searchText, c.query.offset
	c.mu.Unlock()

	c.fetchPage(text, offset)
	return nil
}

// CollapseAll closes every expanded panel.
func (c *Controller) CollapseAll() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	clear(c.result.expanded)
	c.mu.Unlock()
	c.notify()
}

// ToggleExpand flips whether the user with the given id is expanded.
// Unknown ids are accepted; they simply never match a rendered item.
func (c *Controller) ToggleExpand(id int64) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.result.expanded[id]; ok {
		delete(c.result.expanded, id)
	} else {
		c.result.expanded[id] = struct{}{}
	}
	c.mu.Unlock()
	c.notify()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close unmounts the controller: it drops a pending debounced search,
// cancels in-flight requests and waits for their goroutines to finish.
// Operations after Close are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.debouncer.Cancel()
	c.cancel()
	c.wg.Wait()
}

// fetchPage starts a request for one page and returns immediately.
//
// SEQUENCE NUMBERS:
// Superseded requests are not cancelled, so responses can arrive out of
// order. Each request is tagged with the next sequence number and a response
// is applied only if its number is still the latest issued; anything older
// is dropped. loading therefore stays true until the newest request lands.
func (c *Controller) fetchPage(searchText string, offset int) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	c.searchPending = false
	c.result.loading = true
	c.result.lastError = ""
	limit := c.query.pageSize
	c.wg.Add(1)
	c.mu.Unlock()
	c.notify()

	c.logger.Debug("fetching users",
		slog.Uint64("seq", seq),
		slog.String("search", searchText),
		slog.Int("offset", offset),
	)

	go func() {
		defer c.wg.Done()

		page, err := c.source.ListUsers(c.ctx, usersource.Query{
			Search: searchText,
			Offset: offset,
			Limit:  limit,
		})

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		if seq != c.seq {
			latest := c.seq
			c.mu.Unlock()
			c.logger.Debug("discarding stale response",
				slog.Uint64("seq", seq),
				slog.Uint64("latest", latest),
			)
			return
		}
		c.applyLocked(offset, page, err)
		c.mu.Unlock()
		c.notify()
	}()
}

// applyLocked folds a completed fetch into the result state. c.mu must be held.
func (c *Controller) applyLocked(offset int, page *model.UserPage, err error) {
	c.result.loading = false

	if err != nil {
		c.logger.Error("failed to fetch users",
			slog.String("search", c.query.searchText),
			slog.Int("offset", offset),
			slog.String("error", errorCause(err)),
		)
		c.result.lastError = apperror.FetchFailureMessage
		// Step back so the next LoadMore asks for the page that failed
		// instead of skipping it.
		if offset > 0 {
			c.query.offset = offset - c.query.pageSize
		}
		return
	}

	if offset == 0 {
		c.result.items = append([]model.User(nil), page.Users...)
	} else {
		c.result.items = append(c.result.items, page.Users...)
	}
	c.result.totalUsers = page.TotalUsers
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.Snapshot())
}

// errorCause returns the most useful text for logs: the wrapped cause of a
// fetch failure rather than its user-facing message.
func errorCause(err error) string {
	var ae *apperror.AppError
	if errors.As(err, &ae) && ae.Cause != nil {
		return ae.Cause.Error()
	}
	return err.Error()
}
