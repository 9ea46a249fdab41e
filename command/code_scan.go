package command

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/goliatone/go-user-tracker/scanner"
	"github.com/google/uuid"
)

// EventLogger is the positional logging entry point shared by adapters and
// jobs.
type EventLogger interface {
	Log(ctx context.Context, actorID uuid.UUID, action, details string) error
}

// CodeScanInput triggers one file-change scan. ActorID is the actor whose
// admin page load triggered the scan. Changes receives the detected changes
// when set.
type CodeScanInput struct {
	ActorID uuid.UUID
	Roots   []string
	Changes *[]scanner.Change
}

// Type implements gocommand.Message.
func (CodeScanInput) Type() string {
	return "command.code.scan"
}

// Validate implements gocommand.Message.
func (CodeScanInput) Validate() error {
	return nil
}

// CodeScanCommand compares file modification times under the configured
// roots against the stored mapping, logs one code_modified event per change
// and saves the updated mapping.
type CodeScanCommand struct {
	store   types.FileWatchStore
	events  EventLogger
	roots   []string
	walk    func([]string) (types.FileTimes, error)
	gate    featuregate.FeatureGate
	logger  types.Logger
	metrics types.Metrics
}

// CodeScanConfig wires the scan dependencies. Walk defaults to scanner.Walk.
type CodeScanConfig struct {
	Store       types.FileWatchStore
	Events      EventLogger
	Roots       []string
	Walk        func([]string) (types.FileTimes, error)
	FeatureGate featuregate.FeatureGate
	Logger      types.Logger
	Metrics     types.Metrics
}

// NewCodeScanCommand constructs the scan handler.
func NewCodeScanCommand(cfg CodeScanConfig) *CodeScanCommand {
	walk := cfg.Walk
	if walk == nil {
		walk = scanner.Walk
	}
	return &CodeScanCommand{
		store:   cfg.Store,
		events:  cfg.Events,
		roots:   append([]string(nil), cfg.Roots...),
		walk:    walk,
		gate:    cfg.FeatureGate,
		logger:  safeLogger(cfg.Logger),
		metrics: safeMetrics(cfg.Metrics),
	}
}

var _ gocommand.Commander[CodeScanInput] = (*CodeScanCommand)(nil)

// Execute runs one scan. A disabled feature gate turns the scan into a no-op.
func (c *CodeScanCommand) Execute(ctx context.Context, input CodeScanInput) error {
	if c.store == nil {
		return types.ErrMissingFileWatchStore
	}
	if c.events == nil {
		return ErrActivityLoggerRequired
	}
	enabled, err := featureEnabled(ctx, c.gate, FeatureCodeScan, input.ActorID)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	roots := input.Roots
	if len(roots) == 0 {
		roots = c.roots
	}
	prior, err := c.store.LoadFileTimes(ctx)
	if err != nil {
		c.logger.Error("code scan load failed", err)
		return err
	}
	current, err := c.walk(roots)
	if err != nil {
		c.logger.Error("code scan walk failed", err)
		return err
	}

	next, changes := scanner.Diff(prior, current)
	for _, change := range changes {
		if logErr := c.events.Log(ctx, input.ActorID, types.ActionCodeModified, change.Details()); logErr != nil {
			c.logger.Error("code scan log failed", logErr, "path", change.Path)
		}
	}
	c.metrics.CodeChanges(len(changes))

	if err := c.store.SaveFileTimes(ctx, next); err != nil {
		c.logger.Error("code scan save failed", err)
		return err
	}
	if input.Changes != nil {
		*input.Changes = changes
	}
	return nil
}
