package authctx

import (
	"context"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

const textCodeActorInvalid = "ACTOR_CONTEXT_INVALID"

// ActorFromContext is a thin wrapper around go-auth helpers so callers do not
// need to import auth directly when they only need the actor payload.
func ActorFromContext(ctx context.Context) (*auth.ActorContext, bool) {
	return auth.ActorFromContext(ctx)
}

// ActorFromRouterContext extracts the actor payload from router contexts using
// go-auth helpers.
func ActorFromRouterContext(ctx router.Context) (*auth.ActorContext, bool) {
	return auth.ActorFromRouterContext(ctx)
}

// ResolveActorContext returns the actor metadata stored by go-auth middleware
// or rebuilds it from JWT claims when the ContextEnricher hook was not
// configured.
func ResolveActorContext(ctx context.Context) (*auth.ActorContext, error) {
	if ctx == nil {
		return nil, types.NotAuthenticated("go-user-tracker: missing request context")
	}

	if actor, ok := auth.ActorFromContext(ctx); ok && actor != nil {
		return actor, nil
	}

	if claims, ok := auth.GetClaims(ctx); ok && claims != nil {
		if actor := auth.ActorContextFromClaims(claims); actor != nil {
			return actor, nil
		}
	}

	return nil, types.NotAuthenticated("go-user-tracker: auth actor context not found on request")
}

// ResolveActorContextFromRouter mirrors ResolveActorContext for router
// transports where middleware stores actor metadata directly in the router
// context.
func ResolveActorContextFromRouter(ctx router.Context) (*auth.ActorContext, error) {
	if ctx == nil {
		return nil, types.NotAuthenticated("go-user-tracker: missing router context")
	}

	if actor, ok := auth.ActorFromRouterContext(ctx); ok && actor != nil {
		return actor, nil
	}

	return ResolveActorContext(ctx.Context())
}

// ResolveActor returns the actor reference used by the tracker commands.
func ResolveActor(ctx context.Context) (types.ActorRef, error) {
	actorCtx, err := ResolveActorContext(ctx)
	if err != nil {
		return types.ActorRef{}, err
	}
	return ActorRefFromActorContext(actorCtx)
}

// ResolveActorFromRouter resolves the authenticated actor of a router request.
func ResolveActorFromRouter(ctx router.Context) (types.ActorRef, error) {
	actorCtx, err := ResolveActorContextFromRouter(ctx)
	if err != nil {
		return types.ActorRef{}, err
	}
	return ActorRefFromActorContext(actorCtx)
}

// ActorRefFromActorContext converts the auth middleware payload into the
// smaller ActorRef consumed across the tracker.
func ActorRefFromActorContext(actor *auth.ActorContext) (types.ActorRef, error) {
	if actor == nil {
		return types.ActorRef{}, errors.New("go-user-tracker: actor context is nil", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}
	if actor.ActorID == "" {
		return types.ActorRef{}, errors.New("go-user-tracker: actor context missing actor_id", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}

	actorID, err := uuid.Parse(actor.ActorID)
	if err != nil {
		return types.ActorRef{}, errors.Wrap(err, errors.CategoryAuth, "go-user-tracker: invalid actor_id on auth context").
			WithCode(errors.CodeUnauthorized).
			WithTextCode(textCodeActorInvalid)
	}

	return types.ActorRef{
		ID:    actorID,
		Roles: types.NormalizeRoles([]string{actor.Role}),
	}, nil
}

// ClaimsActor is the part of the token claims the tracker reads.
type ClaimsActor interface {
	Subject() string
	UserID() string
	Role() string
}

// ActorRefFromClaims builds the actor reference from validated token claims.
// UserID wins over Subject when both are set.
func ActorRefFromClaims(claims ClaimsActor) (types.ActorRef, error) {
	if claims == nil {
		return types.ActorRef{}, types.NotAuthenticated("go-user-tracker: missing token claims")
	}
	id := claims.UserID()
	if id == "" {
		id = claims.Subject()
	}
	return ActorRefFromActorContext(&auth.ActorContext{ActorID: id, Role: claims.Role()})
}
