// Package session tracks per-browser-session point collections in memory.
// Sessions expire after a period of inactivity and the registry caps the
// number of live sessions, evicting the least recently touched first.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/click2vector/internal/collection"
)

// ErrNotFound is returned when a session ID is unknown or expired.
var ErrNotFound = eris.New("session: not found")

// Session pairs an ID with its point collection.
type Session struct {
	ID         string
	Collection *collection.Collection
	CreatedAt  time.Time

	lastAccess time.Time
}

// Registry is a concurrent-safe session store with TTL expiration.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	maxSessions int
	maxPoints   int
	done        chan struct{}
	closeOnce   sync.Once
}

// NewRegistry creates a Registry. ttl <= 0 disables expiration;
// maxSessions <= 0 disables the cap. maxPoints caps each collection.
func NewRegistry(ttl time.Duration, maxSessions, maxPoints int) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		maxSessions: maxSessions,
		maxPoints:   maxPoints,
		done:        make(chan struct{}),
	}
}

// Create allocates a new session with a fresh UUID.
func (r *Registry) Create() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.evictOldestLocked()
	}

	now := time.Now()
	s := &Session{
		ID:         uuid.NewString(),
		Collection: collection.New(r.maxPoints),
		CreatedAt:  now,
		lastAccess: now,
	}
	r.sessions[s.ID] = s
	return s
}

// Get returns the session for id, sliding its expiration window.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.ttl > 0 && time.Since(s.lastAccess) > r.ttl {
		delete(r.sessions, id)
		return nil, ErrNotFound
	}
	s.lastAccess = time.Now()
	return s, nil
}

// Delete removes a session. Unknown IDs are a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Purge drops all expired sessions and returns how many were removed.
func (r *Registry) Purge() int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int
	for id, s := range r.sessions {
		if time.Since(s.lastAccess) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor launches a background goroutine that purges expired sessions
// at the given interval until Close is called.
func (r *Registry) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := r.Purge(); n > 0 {
					zap.L().Debug("session: purged expired sessions", zap.Int("count", n))
				}
			case <-r.done:
				return
			}
		}
	}()
}

// Close stops the janitor goroutine.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// evictOldestLocked removes the least recently touched session. Caller holds
// the lock.
func (r *Registry) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, s := range r.sessions {
		if oldestID == "" || s.lastAccess.Before(oldest) {
			oldestID = id
			oldest = s.lastAccess
		}
	}
	if oldestID != "" {
		delete(r.sessions, oldestID)
		zap.L().Debug("session: evicted oldest session", zap.String("id", oldestID))
	}
}
