package presence

import (
	"context"
	"time"

	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

// DefaultActiveWindow is how far back an actor still counts as active.
const DefaultActiveWindow = 10 * time.Minute

// Tracker implements types.PresenceTracker over a PresenceRepository.
type Tracker struct {
	repo  types.PresenceRepository
	clock types.Clock
}

// NewTracker constructs a tracker.
func NewTracker(repo types.PresenceRepository, clock types.Clock) (*Tracker, error) {
	if repo == nil {
		return nil, types.ErrMissingPresenceRepository
	}
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Tracker{repo: repo, clock: clock}, nil
}

var _ types.PresenceTracker = (*Tracker)(nil)

// MarkActive sets the actor's presence entry to now.
func (t *Tracker) MarkActive(ctx context.Context, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return types.ErrActorRequired
	}
	return t.repo.Touch(ctx, actorID, t.clock.Now())
}

// ListActive returns actors seen within the window, most recent first. A
// non-positive window falls back to DefaultActiveWindow.
func (t *Tracker) ListActive(ctx context.Context, within time.Duration) ([]types.PresenceEntry, error) {
	if within <= 0 {
		within = DefaultActiveWindow
	}
	return t.repo.ListSince(ctx, t.clock.Now().Add(-within))
}
