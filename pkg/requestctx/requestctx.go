// Package requestctx provides transport-independent accessors for request
// scoped values the tracker needs while logging: the network address the
// request came from and the authenticated actor that issued it.
//
// Middleware sets the values, adapters and commands read them:
//
//	ctx = requestctx.WithOrigin(ctx, "203.0.113.7")
//	ctx = requestctx.WithActor(ctx, types.ActorRef{ID: id})
//
//	addr := requestctx.Origin(ctx)
package requestctx

import (
	"context"
	"strings"

	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

type (
	originKey struct{}
	actorKey  struct{}
)

// WithOrigin stores the origin network address on the context.
func WithOrigin(ctx context.Context, addr string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, originKey{}, strings.TrimSpace(addr))
}

// Origin returns the origin address or an empty string when the context was
// not derived from a request (cron, background scans).
func Origin(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if addr, ok := ctx.Value(originKey{}).(string); ok {
		return addr
	}
	return ""
}

// WithActor stores the authenticated actor on the context.
func WithActor(ctx context.Context, actor types.ActorRef) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// Actor returns the authenticated actor, if any.
func Actor(ctx context.Context) (types.ActorRef, bool) {
	if ctx == nil {
		return types.ActorRef{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(types.ActorRef)
	if !ok || actor.IsZero() {
		return types.ActorRef{}, false
	}
	return actor, true
}

// ActorID returns the current actor identifier or uuid.Nil.
func ActorID(ctx context.Context) uuid.UUID {
	actor, ok := Actor(ctx)
	if !ok {
		return uuid.Nil
	}
	return actor.ID
}
