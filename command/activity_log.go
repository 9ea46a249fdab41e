package command

import (
	"context"
	"strings"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-user-tracker/pkg/requestctx"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

// ActivityLogInput describes one event to append to the audit log. ActorID
// may be uuid.Nil when no authenticated actor triggered the event.
type ActivityLogInput struct {
	ActorID    uuid.UUID
	Action     string
	Details    string
	OccurredAt time.Time
	Result     *types.EventRecord
}

// Type implements gocommand.Message.
func (ActivityLogInput) Type() string {
	return "command.activity.log"
}

// Validate implements gocommand.Message.
func (input ActivityLogInput) Validate() error {
	if strings.TrimSpace(input.Action) == "" {
		return ErrActionRequired
	}
	return nil
}

// ActivityLogCommand appends event records to the store. Details are stored
// exactly as supplied and the origin address comes from the request context.
type ActivityLogCommand struct {
	store   types.EventStore
	sinks   []types.ActivitySink
	clock   types.Clock
	logger  types.Logger
	metrics types.Metrics
}

// ActivityLogConfig wires dependencies for the log command. Sinks receive
// every stored record after the append succeeded.
type ActivityLogConfig struct {
	Store   types.EventStore
	Sinks   []types.ActivitySink
	Clock   types.Clock
	Logger  types.Logger
	Metrics types.Metrics
}

// NewActivityLogCommand constructs the logging command handler.
func NewActivityLogCommand(cfg ActivityLogConfig) *ActivityLogCommand {
	sinks := make([]types.ActivitySink, 0, len(cfg.Sinks))
	for _, sink := range cfg.Sinks {
		if sink != nil {
			sinks = append(sinks, sink)
		}
	}
	return &ActivityLogCommand{
		store:   cfg.Store,
		sinks:   sinks,
		clock:   safeClock(cfg.Clock),
		logger:  safeLogger(cfg.Logger),
		metrics: safeMetrics(cfg.Metrics),
	}
}

var _ gocommand.Commander[ActivityLogInput] = (*ActivityLogCommand)(nil)

// Execute validates and persists the supplied event.
func (c *ActivityLogCommand) Execute(ctx context.Context, input ActivityLogInput) error {
	if c.store == nil {
		return types.ErrMissingEventStore
	}
	if err := input.Validate(); err != nil {
		return err
	}
	record := types.EventRecord{
		ActorID:       input.ActorID,
		Action:        strings.TrimSpace(input.Action),
		Details:       input.Details,
		OriginAddress: requestctx.Origin(ctx),
		OccurredAt:    input.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = now(c.clock)
	}

	id, err := c.store.Append(ctx, record)
	if err != nil {
		c.metrics.LogFailed()
		c.logger.Error("activity append failed", err, "action", record.Action)
		return err
	}
	record.ID = id
	c.metrics.EventLogged(record.Action)

	for _, sink := range c.sinks {
		if sinkErr := sink.Log(ctx, record); sinkErr != nil {
			c.logger.Error("activity sink failed", sinkErr, "action", record.Action, "id", record.ID)
		}
	}
	if input.Result != nil {
		*input.Result = record
	}
	return nil
}

// Log is the positional form used by capture adapters and jobs.
func (c *ActivityLogCommand) Log(ctx context.Context, actorID uuid.UUID, action, details string) error {
	return c.Execute(ctx, ActivityLogInput{
		ActorID: actorID,
		Action:  action,
		Details: details,
	})
}
