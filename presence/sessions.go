package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

// DefaultSessionTTL bounds how long a session stays open without a new
// admin request.
const DefaultSessionTTL = 30 * time.Minute

type sessionEntry struct {
	actor    types.ActorRef
	lastSeen time.Time
}

// SessionRegistry is an in-process types.SessionSource fed by the admin
// middleware. Sessions expire after the TTL.
type SessionRegistry struct {
	mu       sync.Mutex
	ttl      time.Duration
	clock    types.Clock
	sessions map[uuid.UUID]sessionEntry
}

// NewSessionRegistry constructs a registry. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewSessionRegistry(ttl time.Duration, clock types.Clock) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &SessionRegistry{
		ttl:      ttl,
		clock:    clock,
		sessions: make(map[uuid.UUID]sessionEntry),
	}
}

var _ types.SessionSource = (*SessionRegistry)(nil)

// Observe records a request from the actor.
func (r *SessionRegistry) Observe(actor types.ActorRef) {
	if actor.IsZero() {
		return
	}
	actor.Roles = types.NormalizeRoles(actor.Roles)
	r.mu.Lock()
	r.sessions[actor.ID] = sessionEntry{actor: actor, lastSeen: r.clock.Now()}
	r.mu.Unlock()
}

// ActiveSessions returns the sessions seen within the TTL ordered by most
// recent request. Expired sessions are evicted.
func (r *SessionRegistry) ActiveSessions(context.Context) ([]types.ActorRef, error) {
	cutoff := r.clock.Now().Add(-r.ttl)
	r.mu.Lock()
	entries := make([]sessionEntry, 0, len(r.sessions))
	for id, entry := range r.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			continue
		}
		entries = append(entries, entry)
	}
	r.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastSeen.After(entries[j].lastSeen)
	})
	out := make([]types.ActorRef, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.actor)
	}
	return out, nil
}
