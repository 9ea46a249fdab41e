package validation

import (
	"github.com/goliatone/go-auth/middleware/jwtware"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-user-tracker/pkg/authctx"
	"github.com/goliatone/go-user-tracker/pkg/types"
)

// SessionObserver receives actors whose tokens were validated. The presence
// session registry implements it.
type SessionObserver interface {
	Observe(actor types.ActorRef)
}

// ListenerOptions customize the validation listener behaviour.
type ListenerOptions struct {
	Sessions SessionObserver
	Logger   types.Logger
	// ResolveActor defaults to authctx.ResolveActorFromRouter. The
	// validation listener prefers the token claims when it receives them.
	ResolveActor func(router.Context) (types.ActorRef, error)
	// Role limits which actors are observed. Defaults to administrators.
	Role string
}

type listener struct {
	opts ListenerOptions
}

func newListener(opts ListenerOptions) *listener {
	if opts.Logger == nil {
		opts.Logger = types.NopLogger{}
	}
	if opts.ResolveActor == nil {
		opts.ResolveActor = authctx.ResolveActorFromRouter
	}
	if opts.Role == "" {
		opts.Role = types.RoleAdministrator
	}
	return &listener{opts: opts}
}

// NewListener returns a jwtware.ValidationListener that keeps the session
// registry in sync with every validated token. go-auth runs listeners before
// the claims reach the request context, so the actor is read from claims.
func NewListener(opts ListenerOptions) jwtware.ValidationListener {
	l := newListener(opts)
	return func(ctx router.Context, claims jwtware.AuthClaims) error {
		if claims == nil {
			l.observe(ctx)
			return nil
		}
		actor, err := authctx.ActorRefFromClaims(claims)
		l.record(actor, err)
		return nil
	}
}

func (l *listener) observe(ctx router.Context) {
	if l.opts.Sessions == nil {
		return
	}
	actor, err := l.opts.ResolveActor(ctx)
	l.record(actor, err)
}

func (l *listener) record(actor types.ActorRef, err error) {
	if l.opts.Sessions == nil {
		return
	}
	if err != nil {
		l.opts.Logger.Debug("validation listener skipped unresolved actor", "error", err)
		return
	}
	if actor.IsZero() || !actor.HasRole(l.opts.Role) {
		return
	}
	l.opts.Sessions.Observe(actor)
}
