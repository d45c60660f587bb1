package viewcontroller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSessionTTL is how long an idle page session keeps its controller.
const DefaultSessionTTL = 30 * time.Minute

// DefaultMaxSessions bounds the live sessions of one Registry.
const DefaultMaxSessions = 10000

type session struct {
	ctrl     *Controller
	lastSeen time.Time
	ready    chan struct{}
}

// Registry owns one Controller per page session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  func(locale string) *Controller
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithMaxSessions caps the live sessions; n <= 0 keeps DefaultMaxSessions.
// Opening a session beyond the cap evicts the least recently seen one.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.max = n
		}
	}
}

// NewRegistry creates a registry that builds controllers with factory.
// PRE: factory is non-nil
// POST: ttl <= 0 selects DefaultSessionTTL
func NewRegistry(factory func(locale string) *Controller, ttl time.Duration, opts ...RegistryOption) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	r := &Registry{
		sessions: make(map[string]*session),
		factory:  factory,
		ttl:      ttl,
		max:      DefaultMaxSessions,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the controller for id, creating it on first use.
// A new controller is loaded once (the page's startup Refresh) before Open returns.
// Concurrent first requests for the same id wait for that load instead of repeating it.
// INVARIANT: Len() never exceeds the session cap
func (r *Registry) Open(ctx context.Context, id, locale string) *Controller {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		s.lastSeen = r.now()
		r.mu.Unlock()
		select {
		case <-s.ready:
		case <-ctx.Done():
		}
		return s.ctrl
	}
	var evicted *Controller
	if len(r.sessions) >= r.max {
		evicted = r.evictOldestLocked()
	}
	s = &session{ctrl: r.factory(locale), lastSeen: r.now(), ready: make(chan struct{})}
	r.sessions[id] = s
	r.mu.Unlock()

	if evicted != nil {
		evicted.Close()
		slog.Debug("session_evicted", "reason", "max_sessions")
	}

	s.ctrl.Refresh(ctx)
	close(s.ready)
	return s.ctrl
}

// evictOldestLocked forgets the least recently seen session and returns its controller.
// PRE: r.mu is held and r.sessions is non-empty
func (r *Registry) evictOldestLocked() *Controller {
	var (
		oldestID string
		oldest   *session
	)
	for id, s := range r.sessions {
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, s
		}
	}
	delete(r.sessions, oldestID)
	return oldest.ctrl
}

// Lookup returns the controller for id without creating one.
func (r *Registry) Lookup(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.ctrl, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes and forgets sessions idle for longer than the TTL.
// POST: returns the number of sessions removed
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	var stale []*Controller

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, s.ctrl)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, c := range stale {
		c.Close()
	}
	return len(stale)
}

// StartJanitor sweeps idle sessions every interval until stopCh is closed.
func (r *Registry) StartJanitor(interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					slog.Debug("sessions_swept", "count", n)
				}
			case <-stopCh:
				slog.Info("session_janitor_stopped")
				return
			}
		}
	}()
}
