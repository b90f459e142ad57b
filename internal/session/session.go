// Package session keeps one list controller per browser session.
//
// A browser visiting the directory for the first time "mounts" a fresh
// controller; the controller is "unmounted" (closed) when the session has
// been idle for the TTL or when the server shuts down. Nothing is persisted:
// a restart starts every visitor from an empty search.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/user-directory/internal/controller"
)

// Factory builds an unmounted controller for a new session.
type Factory func() *controller.Controller

type entry struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

// Config bounds how long and how many sessions are kept.
type Config struct {
	// TTL is how long a session may sit idle before it is unmounted.
	TTL time.Duration
	// MaxSessions caps live sessions; creating one more evicts the least
	// recently seen. Zero means no cap.
	MaxSessions int
}

// Store maps session IDs to controllers and expires idle ones.
type Store struct {
	factory     Factory
	ttl         time.Duration
	maxSessions int
	interval    time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewStore creates a Store. Call Start to begin expiring idle sessions.
func NewStore(factory Factory, cfg Config, logger *slog.Logger) *Store {
	interval := cfg.TTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &Store{
		factory:     factory,
		ttl:         cfg.TTL,
		maxSessions: cfg.MaxSessions,
		interval:    interval,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*entry),
		done:        make(chan struct{}),
	}
}

// Start launches the background janitor.
func (s *Store) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting session janitor",
			slog.Duration("ttl", s.ttl),
			slog.Duration("interval", s.interval),
		)
		s.wg.Add(1)
		go s.janitor()
	})
}

// Stop halts the janitor and closes every live controller.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()

		s.mu.Lock()
		live := s.sessions
		s.sessions = make(map[string]*entry)
		s.mu.Unlock()

		for _, e := range live {
			e.ctrl.Close()
		}
		s.logger.Info("session store stopped", slog.Int("closed", len(live)))
	})
}

// Create mounts a controller for a new session and returns its ID. At the
// MaxSessions cap the least recently seen session is unmounted first, so
// clients that never send the cookie back cannot grow the store.
func (s *Store) Create() (string, *controller.Controller) {
	id := xid.New().String()
	ctrl := s.factory()

	s.mu.Lock()
	var evict string
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		evict = s.oldestLocked()
	}
	s.sessions[id] = &entry{ctrl: ctrl, lastSeen: s.now()}
	s.mu.Unlock()

	if evict != "" {
		s.Remove(evict)
		s.logger.Info("evicted least recently seen session",
			slog.String("session", evict),
			slog.Int("max", s.maxSessions),
		)
	}
	ctrl.Mount()

	s.logger.Debug("session created", slog.String("session", id), slog.Int("live", s.Len()))
	return id, ctrl
}

func (s *Store) oldestLocked() string {
	var (
		oldest string
		seen   time.Time
	)
	for id, e := range s.sessions {
		if oldest == "" || e.lastSeen.Before(seen) {
			oldest, seen = id, e.lastSeen
		}
	}
	return oldest
}

// Get returns the controller for id and marks the session as active.
func (s *Store) Get(id string) (*controller.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.ctrl, true
}

// GetOrCreate returns the controller for id, or mounts a new session when id
// is empty, malformed or unknown. created reports which happened.
func (s *Store) GetOrCreate(id string) (sessionID string, ctrl *controller.Controller, created bool) {
	if _, err := xid.FromString(id); err == nil {
		if ctrl, ok := s.Get(id); ok {
			return id, ctrl, false
		}
	}
	sessionID, ctrl = s.Create()
	return sessionID, ctrl, true
}

// Remove closes and forgets a session. Unknown IDs are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		e.ctrl.Close()
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweep closes sessions idle for longer than the TTL and returns how many
// were removed. Controllers are closed outside the lock since Close waits
// for in-flight fetches.
func (s *Store) sweep() int {
	cutoff := s.now().Add(-s.ttl)

	var expired []*controller.Controller
	s.mu.Lock()
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.ctrl)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, ctrl := range expired {
		ctrl.Close()
	}
	return len(expired)
}

func (s *Store) janitor() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.logger.Info("expired idle sessions", slog.Int("count", n), slog.Int("live", s.Len()))
			}
		}
	}
}
