package command

import (
	"context"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-user-tracker/pkg/types"
)

// DefaultRetention is the age after which records are purged.
const DefaultRetention = 7 * 24 * time.Hour

// RetentionSweepInput optionally overrides the configured retention. Deleted
// receives the number of removed rows when set.
type RetentionSweepInput struct {
	Retention time.Duration
	Deleted   *int
}

// Type implements gocommand.Message.
func (RetentionSweepInput) Type() string {
	return "command.activity.retention_sweep"
}

// Validate implements gocommand.Message.
func (input RetentionSweepInput) Validate() error {
	if input.Retention < 0 {
		return ErrRetentionNegative
	}
	return nil
}

// RetentionSweepCommand deletes records older than the retention window. It
// is driven by the daily schedule and never retries a failed sweep.
type RetentionSweepCommand struct {
	store     types.EventStore
	retention time.Duration
	logger    types.Logger
	metrics   types.Metrics
}

// RetentionSweepConfig wires the sweep dependencies.
type RetentionSweepConfig struct {
	Store     types.EventStore
	Retention time.Duration
	Logger    types.Logger
	Metrics   types.Metrics
}

// NewRetentionSweepCommand constructs the sweep handler.
func NewRetentionSweepCommand(cfg RetentionSweepConfig) *RetentionSweepCommand {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RetentionSweepCommand{
		store:     cfg.Store,
		retention: retention,
		logger:    safeLogger(cfg.Logger),
		metrics:   safeMetrics(cfg.Metrics),
	}
}

var _ gocommand.Commander[RetentionSweepInput] = (*RetentionSweepCommand)(nil)

// Execute runs one sweep.
func (c *RetentionSweepCommand) Execute(ctx context.Context, input RetentionSweepInput) error {
	if c.store == nil {
		return types.ErrMissingEventStore
	}
	if err := input.Validate(); err != nil {
		return err
	}
	retention := input.Retention
	if retention == 0 {
		retention = c.retention
	}
	deleted, err := c.store.DeleteOlderThan(ctx, retention)
	if err != nil {
		c.logger.Error("retention sweep failed", err, "retention", retention.String())
		return err
	}
	c.metrics.RetentionDeleted(deleted)
	c.logger.Info("retention sweep completed", "deleted", deleted, "retention", retention.String())
	if input.Deleted != nil {
		*input.Deleted = deleted
	}
	return nil
}

// Retention reports the configured default window.
func (c *RetentionSweepCommand) Retention() time.Duration {
	return c.retention
}
