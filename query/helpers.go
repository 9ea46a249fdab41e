package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

// UnknownUser labels records whose actor cannot be resolved.
const UnknownUser = "Unknown User"

// LastActiveLayout formats presence timestamps for display.
const LastActiveLayout = "2006-01-02 15:04:05"

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeMetrics(metrics types.Metrics) types.Metrics {
	if metrics != nil {
		return metrics
	}
	return types.NopMetrics{}
}

// actorLookup memoizes directory lookups for the duration of one query.
type actorLookup struct {
	directory types.ActorDirectory
	logger    types.Logger
	seen      map[uuid.UUID]*types.Actor
}

func newActorLookup(directory types.ActorDirectory, logger types.Logger) *actorLookup {
	return &actorLookup{
		directory: directory,
		logger:    logger,
		seen:      make(map[uuid.UUID]*types.Actor),
	}
}

func (l *actorLookup) get(ctx context.Context, id uuid.UUID) *types.Actor {
	if id == uuid.Nil || l.directory == nil {
		return nil
	}
	if actor, ok := l.seen[id]; ok {
		return actor
	}
	actor, err := l.directory.GetActor(ctx, id)
	if err != nil {
		l.logger.Debug("actor lookup failed", "actor_id", id.String(), "error", err.Error())
		actor = nil
	}
	l.seen[id] = actor
	return actor
}

func displayName(actor *types.Actor) string {
	if actor == nil {
		return ""
	}
	if name := strings.TrimSpace(actor.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(actor.Username)
}
