package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

// PresenceMarkInput identifies the actor to mark active.
type PresenceMarkInput struct {
	ActorID uuid.UUID
}

// Type implements gocommand.Message.
func (PresenceMarkInput) Type() string {
	return "command.presence.mark"
}

// Validate implements gocommand.Message.
func (input PresenceMarkInput) Validate() error {
	if input.ActorID == uuid.Nil {
		return ErrActorRequired
	}
	return nil
}

// PresenceMarkCommand sets the actor's presence entry to now.
type PresenceMarkCommand struct {
	tracker types.PresenceTracker
}

// NewPresenceMarkCommand constructs the presence mark handler.
func NewPresenceMarkCommand(tracker types.PresenceTracker) *PresenceMarkCommand {
	return &PresenceMarkCommand{tracker: tracker}
}

var _ gocommand.Commander[PresenceMarkInput] = (*PresenceMarkCommand)(nil)

// Execute marks the actor active.
func (c *PresenceMarkCommand) Execute(ctx context.Context, input PresenceMarkInput) error {
	if c.tracker == nil {
		return types.ErrMissingPresenceTracker
	}
	if err := input.Validate(); err != nil {
		return err
	}
	return c.tracker.MarkActive(ctx, input.ActorID)
}
