package query

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-user-tracker/pkg/types"
)

// ActivePresenceInput selects the presence window. Zero uses the configured
// default.
type ActivePresenceInput struct {
	Within time.Duration
}

// Type implements gocommand.Message.
func (ActivePresenceInput) Type() string {
	return "query.presence.active"
}

// Validate implements gocommand.Message.
func (ActivePresenceInput) Validate() error {
	return nil
}

// ActivePresenceQuery lists actors seen within the window, most recent
// first, with their display names. Actors missing from the directory are
// skipped.
type ActivePresenceQuery struct {
	tracker   types.PresenceTracker
	directory types.ActorDirectory
	window    time.Duration
	location  *time.Location
	logger    types.Logger
	metrics   types.Metrics
}

// ActivePresenceConfig wires the query. Location controls how last_active
// is rendered and defaults to UTC.
type ActivePresenceConfig struct {
	Tracker   types.PresenceTracker
	Directory types.ActorDirectory
	Window    time.Duration
	Location  *time.Location
	Logger    types.Logger
	Metrics   types.Metrics
}

// NewActivePresenceQuery constructs the query.
func NewActivePresenceQuery(cfg ActivePresenceConfig) *ActivePresenceQuery {
	window := cfg.Window
	if window <= 0 {
		window = 10 * time.Minute
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	return &ActivePresenceQuery{
		tracker:   cfg.Tracker,
		directory: cfg.Directory,
		window:    window,
		location:  location,
		logger:    safeLogger(cfg.Logger),
		metrics:   safeMetrics(cfg.Metrics),
	}
}

var _ gocommand.Querier[ActivePresenceInput, []types.ActiveActor] = (*ActivePresenceQuery)(nil)

// Query returns the active actors.
func (q *ActivePresenceQuery) Query(ctx context.Context, input ActivePresenceInput) ([]types.ActiveActor, error) {
	if q.tracker == nil {
		return nil, types.ErrMissingPresenceTracker
	}
	if q.directory == nil {
		return nil, types.ErrMissingActorDirectory
	}
	within := input.Within
	if within <= 0 {
		within = q.window
	}
	entries, err := q.tracker.ListActive(ctx, within)
	if err != nil {
		return nil, err
	}
	lookup := newActorLookup(q.directory, q.logger)
	out := make([]types.ActiveActor, 0, len(entries))
	for _, entry := range entries {
		actor := lookup.get(ctx, entry.ActorID)
		if actor == nil {
			continue
		}
		out = append(out, types.ActiveActor{
			ActorID:     entry.ActorID,
			DisplayName: displayName(actor),
			LastActive:  entry.LastActiveAt.In(q.location).Format(LastActiveLayout),
		})
	}
	q.metrics.ActiveActors(len(out))
	return out, nil
}
