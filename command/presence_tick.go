package command

import (
	"context"
	"errors"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-user-tracker/pkg/types"
)

// DefaultPresenceRetention is how long presence entries survive without a
// new mark before the tick prunes them.
const DefaultPresenceRetention = 24 * time.Hour

// PresenceTickInput triggers one scheduled presence refresh. Marked and
// Pruned receive the refreshed and removed counts when set.
type PresenceTickInput struct {
	Marked *int
	Pruned *int64
}

// Type implements gocommand.Message.
func (PresenceTickInput) Type() string {
	return "command.presence.tick"
}

// Validate implements gocommand.Message.
func (PresenceTickInput) Validate() error {
	return nil
}

// PresenceTickCommand refreshes presence for every open administrator
// session. Sessions of other roles are left untouched.
type PresenceTickCommand struct {
	sessions  types.SessionSource
	tracker   types.PresenceTracker
	pruner    types.PresencePruner
	retention time.Duration
	clock     types.Clock
	logger    types.Logger
}

// PresenceTickConfig wires the tick dependencies.
type PresenceTickConfig struct {
	Sessions types.SessionSource
	Tracker  types.PresenceTracker
	// Pruner drops stale entries after each tick. Optional.
	Pruner types.PresencePruner
	// Retention defaults to DefaultPresenceRetention.
	Retention time.Duration
	Clock     types.Clock
	Logger    types.Logger
}

// NewPresenceTickCommand constructs the tick handler.
func NewPresenceTickCommand(cfg PresenceTickConfig) *PresenceTickCommand {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultPresenceRetention
	}
	return &PresenceTickCommand{
		sessions:  cfg.Sessions,
		tracker:   cfg.Tracker,
		pruner:    cfg.Pruner,
		retention: retention,
		clock:     safeClock(cfg.Clock),
		logger:    safeLogger(cfg.Logger),
	}
}

var _ gocommand.Commander[PresenceTickInput] = (*PresenceTickCommand)(nil)

// Execute marks every administrator session active, then prunes entries
// older than the retention. Individual failures are collected and do not
// stop the remaining sessions.
func (c *PresenceTickCommand) Execute(ctx context.Context, input PresenceTickInput) error {
	if c.sessions == nil {
		return types.ErrMissingSessionSource
	}
	if c.tracker == nil {
		return types.ErrMissingPresenceTracker
	}
	sessions, err := c.sessions.ActiveSessions(ctx)
	if err != nil {
		c.logger.Error("presence tick sessions failed", err)
		return err
	}
	marked := 0
	var errs []error
	for _, session := range sessions {
		if session.IsZero() || !session.IsAdministrator() {
			continue
		}
		if err := c.tracker.MarkActive(ctx, session.ID); err != nil {
			c.logger.Error("presence tick mark failed", err, "actor_id", session.ID.String())
			errs = append(errs, err)
			continue
		}
		marked++
	}
	if input.Marked != nil {
		*input.Marked = marked
	}

	var pruned int64
	if c.pruner != nil {
		cutoff := now(c.clock).Add(-c.retention)
		if pruned, err = c.pruner.Prune(ctx, cutoff); err != nil {
			c.logger.Error("presence tick prune failed", err)
			errs = append(errs, err)
		}
	}
	if input.Pruned != nil {
		*input.Pruned = pruned
	}
	c.logger.Debug("presence tick completed", "marked", marked, "pruned", pruned)
	return errors.Join(errs...)
}
