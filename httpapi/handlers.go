package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-user-tracker/command"
	"github.com/goliatone/go-user-tracker/hooks"
	"github.com/goliatone/go-user-tracker/pkg/authctx"
	"github.com/goliatone/go-user-tracker/pkg/requestctx"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/goliatone/go-user-tracker/query"
)

// ActorResolver returns the authenticated actor of a request.
type ActorResolver func(router.Context) (types.ActorRef, error)

// OriginResolver returns the network address of a request.
type OriginResolver func(router.Context) string

// ErrDispatcherRequired is returned when handlers are built without a
// dispatcher.
var ErrDispatcherRequired = errors.New("go-user-tracker: httpapi requires a hook dispatcher")

// Config wires the handlers. ResolveActor defaults to the go-auth router
// context lookup and ResolveOrigin to the router's client IP.
type Config struct {
	RecentActivity gocommand.Querier[query.RecentActivityInput, []query.ActivityRow]
	ActivityStats  gocommand.Querier[query.ActivityStatsInput, types.ActivityStats]
	ActivePresence gocommand.Querier[query.ActivePresenceInput, []types.ActiveActor]
	MarkPresence   gocommand.Commander[command.PresenceMarkInput]
	Dispatcher     *hooks.Dispatcher
	ResolveActor   ActorResolver
	ResolveOrigin  OriginResolver
	Logger         types.Logger
}

// Handlers serves the tracker endpoints.
type Handlers struct {
	recent        gocommand.Querier[query.RecentActivityInput, []query.ActivityRow]
	stats         gocommand.Querier[query.ActivityStatsInput, types.ActivityStats]
	presence      gocommand.Querier[query.ActivePresenceInput, []types.ActiveActor]
	mark          gocommand.Commander[command.PresenceMarkInput]
	dispatcher    *hooks.Dispatcher
	resolveActor  ActorResolver
	resolveOrigin OriginResolver
	logger        types.Logger
}

// New validates cfg and builds the handlers.
func New(cfg Config) (*Handlers, error) {
	if cfg.Dispatcher == nil {
		return nil, ErrDispatcherRequired
	}
	if cfg.RecentActivity == nil || cfg.ActivityStats == nil {
		return nil, types.ErrMissingEventStore
	}
	if cfg.ActivePresence == nil || cfg.MarkPresence == nil {
		return nil, types.ErrMissingPresenceTracker
	}
	resolveActor := cfg.ResolveActor
	if resolveActor == nil {
		resolveActor = authctx.ResolveActorFromRouter
	}
	resolveOrigin := cfg.ResolveOrigin
	if resolveOrigin == nil {
		resolveOrigin = ClientIP
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Handlers{
		recent:        cfg.RecentActivity,
		stats:         cfg.ActivityStats,
		presence:      cfg.ActivePresence,
		mark:          cfg.MarkPresence,
		dispatcher:    cfg.Dispatcher,
		resolveActor:  resolveActor,
		resolveOrigin: resolveOrigin,
		logger:        logger,
	}, nil
}

// Register mounts the endpoints. Middlewares (session authentication) are
// applied to every route; AdminInit is added to the admin views.
func Register[T any](r router.Router[T], h *Handlers, middlewares ...router.MiddlewareFunc) {
	admin := append(append([]router.MiddlewareFunc(nil), middlewares...), h.AdminInit())

	r.Get("/admin/activity", h.RecentActivity, admin...)
	r.Get("/admin/activity/stats", h.ActivityStats, admin...)
	r.Get("/admin/dashboard/active-users", h.DashboardActiveUsers, admin...)
	r.Post("/ajax/update-user-activity", h.UpdateUserActivity, middlewares...)
	r.Get("/ajax/active-users", h.ActiveUsers, middlewares...)
	r.Post("/hooks/:kind", h.IngestHook, middlewares...)
}

// ClientIP is the default OriginResolver.
func ClientIP(ctx router.Context) string {
	return ctx.IP()
}

// RequestOrigin stores the request origin on the router context so handlers
// outside this package, such as the go-auth login routes, log it. A nil
// resolver uses ClientIP.
func RequestOrigin(resolve OriginResolver) router.MiddlewareFunc {
	if resolve == nil {
		resolve = ClientIP
	}
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			ctx.SetContext(requestctx.WithOrigin(ctx.Context(), resolve(ctx)))
			return next(ctx)
		}
	}
}

// requestContext resolves the caller and derives the context that carries
// actor and origin to the commands.
func (h *Handlers) requestContext(ctx router.Context) (context.Context, types.ActorRef, error) {
	actor, err := h.resolveActor(ctx)
	if err != nil {
		if !types.IsNotAuthenticated(err) {
			h.logger.Debug("actor resolution failed", "error", err.Error())
		}
		return nil, types.ActorRef{}, types.NotAuthenticated("go-user-tracker: authentication required")
	}
	if actor.IsZero() {
		return nil, types.ActorRef{}, types.NotAuthenticated("go-user-tracker: authentication required")
	}
	reqCtx := requestctx.WithActor(ctx.Context(), actor)
	reqCtx = requestctx.WithOrigin(reqCtx, h.resolveOrigin(ctx))
	return reqCtx, actor, nil
}

func (h *Handlers) adminContext(ctx router.Context) (context.Context, error) {
	reqCtx, actor, err := h.requestContext(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdministrator() {
		return nil, forbidden("go-user-tracker: administrator role required")
	}
	return reqCtx, nil
}

// AdminInit emits the admin_init hook for authenticated admin page loads
// before calling the next handler. Hook failures are logged.
func (h *Handlers) AdminInit() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if reqCtx, actor, err := h.requestContext(ctx); err == nil {
				if emitErr := h.dispatcher.Emit(reqCtx, hooks.AdminInitEvent{Actor: actor}); emitErr != nil {
					h.logger.Error("admin init hook failed", emitErr, "actor_id", actor.ID.String())
				}
			}
			return next(ctx)
		}
	}
}

// RecentActivity renders the most recent audit records.
func (h *Handlers) RecentActivity(ctx router.Context) error {
	reqCtx, err := h.adminContext(ctx)
	if err != nil {
		return h.writeError(ctx, err)
	}
	rows, err := h.recent.Query(reqCtx, query.RecentActivityInput{})
	if err != nil {
		return h.writeError(ctx, err)
	}
	if rows == nil {
		rows = []query.ActivityRow{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

// ActivityStats renders the per-action counts.
func (h *Handlers) ActivityStats(ctx router.Context) error {
	reqCtx, err := h.adminContext(ctx)
	if err != nil {
		return h.writeError(ctx, err)
	}
	stats, err := h.stats.Query(reqCtx, query.ActivityStatsInput{})
	if err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"total":     stats.Total,
		"by_action": stats.ByAction,
	})
}

// DashboardActiveUsers renders the dashboard widget payload.
func (h *Handlers) DashboardActiveUsers(ctx router.Context) error {
	reqCtx, err := h.adminContext(ctx)
	if err != nil {
		return h.writeError(ctx, err)
	}
	users, err := h.activeUsers(reqCtx)
	if err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, users)
}

// UpdateUserActivity marks the caller active.
func (h *Handlers) UpdateUserActivity(ctx router.Context) error {
	reqCtx, actor, err := h.requestContext(ctx)
	if err != nil {
		return h.writeError(ctx, err)
	}
	if err := h.mark.Execute(reqCtx, command.PresenceMarkInput{ActorID: actor.ID}); err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"success": true})
}

// ActiveUsers returns the actors active within the presence window.
func (h *Handlers) ActiveUsers(ctx router.Context) error {
	reqCtx, _, err := h.requestContext(ctx)
	if err != nil {
		return h.writeError(ctx, err)
	}
	users, err := h.activeUsers(reqCtx)
	if err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"users": users},
	})
}

func (h *Handlers) activeUsers(ctx context.Context) ([]types.ActiveActor, error) {
	users, err := h.presence.Query(ctx, query.ActivePresenceInput{})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []types.ActiveActor{}
	}
	return users, nil
}

// IngestHook decodes a forwarded host event and emits it into the
// dispatcher.
func (h *Handlers) IngestHook(ctx router.Context) error {
	reqCtx, _, err := h.requestContext(ctx)
	if err != nil {
		return h.writeError(ctx, err)
	}
	kind := hooks.Kind(strings.TrimSpace(ctx.Param("kind")))
	if err := h.Ingest(reqCtx, kind, ctx.Body()); err != nil {
		return h.writeError(ctx, err)
	}
	return ctx.JSON(http.StatusAccepted, map[string]any{"success": true})
}

// Ingest decodes payload for kind and emits it. Handler failures are logged
// and never reported to the host.
func (h *Handlers) Ingest(ctx context.Context, kind hooks.Kind, payload []byte) error {
	event, err := hooks.Decode(kind, payload)
	if err != nil {
		return err
	}
	if emitErr := h.dispatcher.Emit(ctx, event); emitErr != nil {
		h.logger.Error("hook handlers failed", emitErr, "kind", string(event.Kind()))
	}
	return nil
}
