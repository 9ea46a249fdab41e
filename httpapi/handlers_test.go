package httpapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-user-tracker/command"
	"github.com/goliatone/go-user-tracker/hooks"
	"github.com/goliatone/go-user-tracker/pkg/requestctx"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/goliatone/go-user-tracker/query"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubRecent struct {
	rows []query.ActivityRow
	err  error
}

func (s stubRecent) Query(context.Context, query.RecentActivityInput) ([]query.ActivityRow, error) {
	return s.rows, s.err
}

type stubStats struct {
	stats types.ActivityStats
}

func (s stubStats) Query(context.Context, query.ActivityStatsInput) (types.ActivityStats, error) {
	return s.stats, nil
}

type stubPresence struct {
	users []types.ActiveActor
}

func (s stubPresence) Query(context.Context, query.ActivePresenceInput) ([]types.ActiveActor, error) {
	return s.users, nil
}

type recordingMark struct {
	inputs  []command.PresenceMarkInput
	origins []string
}

func (r *recordingMark) Execute(ctx context.Context, input command.PresenceMarkInput) error {
	r.inputs = append(r.inputs, input)
	r.origins = append(r.origins, requestctx.Origin(ctx))
	return nil
}

type fixture struct {
	handlers   *Handlers
	dispatcher *hooks.Dispatcher
	mark       *recordingMark
}

func newFixture(t *testing.T, actor *types.ActorRef) fixture {
	t.Helper()
	dispatcher := hooks.NewDispatcher()
	mark := &recordingMark{}
	handlers, err := New(Config{
		RecentActivity: stubRecent{rows: []query.ActivityRow{{ID: 1, Username: "ada", Action: types.ActionLogin}}},
		ActivityStats:  stubStats{stats: types.ActivityStats{Total: 2, ByAction: map[string]int{types.ActionLogin: 2}}},
		ActivePresence: stubPresence{users: []types.ActiveActor{{DisplayName: "Ada", LastActive: "2024-05-01 10:00:00"}}},
		MarkPresence:   mark,
		Dispatcher:     dispatcher,
		ResolveActor: func(router.Context) (types.ActorRef, error) {
			if actor == nil {
				return types.ActorRef{}, types.NotAuthenticated("no session")
			}
			return *actor, nil
		},
		ResolveOrigin: func(router.Context) string { return "203.0.113.7" },
	})
	require.NoError(t, err)
	return fixture{handlers: handlers, dispatcher: dispatcher, mark: mark}
}

func adminActor() *types.ActorRef {
	return &types.ActorRef{ID: uuid.New(), Roles: []string{types.RoleAdministrator}}
}

func unauthorizedPayload(payload ErrorPayload) bool {
	return !payload.Success && payload.Error.TextCode == types.TextCodeNotAuthenticated
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrDispatcherRequired)

	_, err = New(Config{Dispatcher: hooks.NewDispatcher()})
	require.ErrorIs(t, err, types.ErrMissingEventStore)
}

func TestUpdateUserActivityMarksCaller(t *testing.T) {
	actor := &types.ActorRef{ID: uuid.New(), Roles: []string{"editor"}}
	fx := newFixture(t, actor)

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", http.StatusOK, map[string]any{"success": true}).Return(nil)

	require.NoError(t, fx.handlers.UpdateUserActivity(ctx))
	ctx.AssertCalled(t, "JSON", http.StatusOK, map[string]any{"success": true})
	require.Equal(t, []command.PresenceMarkInput{{ActorID: actor.ID}}, fx.mark.inputs)
	require.Equal(t, []string{"203.0.113.7"}, fx.mark.origins)
}

func TestUpdateUserActivityUnauthenticatedDoesNotMutate(t *testing.T) {
	fx := newFixture(t, nil)

	ctx := router.NewMockContext()
	ctx.On("JSON", http.StatusUnauthorized, mock.MatchedBy(unauthorizedPayload)).Return(nil)

	require.NoError(t, fx.handlers.UpdateUserActivity(ctx))
	ctx.AssertCalled(t, "JSON", http.StatusUnauthorized, mock.MatchedBy(unauthorizedPayload))
	require.Empty(t, fx.mark.inputs)
}

func TestActiveUsersWrapsPayload(t *testing.T) {
	fx := newFixture(t, &types.ActorRef{ID: uuid.New()})

	expected := map[string]any{
		"success": true,
		"data": map[string]any{"users": []types.ActiveActor{
			{DisplayName: "Ada", LastActive: "2024-05-01 10:00:00"},
		}},
	}
	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", http.StatusOK, expected).Return(nil)

	require.NoError(t, fx.handlers.ActiveUsers(ctx))
	ctx.AssertCalled(t, "JSON", http.StatusOK, expected)
}

func TestActiveUsersUnauthenticated(t *testing.T) {
	fx := newFixture(t, nil)

	ctx := router.NewMockContext()
	ctx.On("JSON", http.StatusUnauthorized, mock.MatchedBy(unauthorizedPayload)).Return(nil)

	require.NoError(t, fx.handlers.ActiveUsers(ctx))
	ctx.AssertNotCalled(t, "JSON", http.StatusOK, mock.Anything)
}

func TestRecentActivityRequiresAdministrator(t *testing.T) {
	fx := newFixture(t, &types.ActorRef{ID: uuid.New(), Roles: []string{"editor"}})

	forbiddenPayload := func(payload ErrorPayload) bool {
		return payload.Error.TextCode == textCodeForbidden
	}
	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", http.StatusForbidden, mock.MatchedBy(forbiddenPayload)).Return(nil)

	require.NoError(t, fx.handlers.RecentActivity(ctx))
	ctx.AssertCalled(t, "JSON", http.StatusForbidden, mock.MatchedBy(forbiddenPayload))
}

func TestRecentActivityReturnsRows(t *testing.T) {
	fx := newFixture(t, adminActor())

	rows := []query.ActivityRow{{ID: 1, Username: "ada", Action: types.ActionLogin}}
	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", http.StatusOK, rows).Return(nil)

	require.NoError(t, fx.handlers.RecentActivity(ctx))
	ctx.AssertCalled(t, "JSON", http.StatusOK, rows)
}

func TestRecentActivityStoreFailure(t *testing.T) {
	fx := newFixture(t, adminActor())
	fx.handlers.recent = stubRecent{err: types.PersistenceError(errors.New("down"), "list")}

	internal := func(payload ErrorPayload) bool { return payload.Error.TextCode == "INTERNAL_ERROR" }
	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", http.StatusInternalServerError, mock.MatchedBy(internal)).Return(nil)

	require.NoError(t, fx.handlers.RecentActivity(ctx))
	ctx.AssertCalled(t, "JSON", http.StatusInternalServerError, mock.MatchedBy(internal))
}

func TestActivityStatsPayload(t *testing.T) {
	fx := newFixture(t, adminActor())

	expected := map[string]any{"total": 2, "by_action": map[string]int{types.ActionLogin: 2}}
	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", http.StatusOK, expected).Return(nil)

	require.NoError(t, fx.handlers.ActivityStats(ctx))
	ctx.AssertCalled(t, "JSON", http.StatusOK, expected)
}

func TestAdminInitEmitsHookAndCallsNext(t *testing.T) {
	actor := adminActor()
	fx := newFixture(t, actor)

	var received []hooks.AdminInitEvent
	var origins []string
	fx.dispatcher.On(hooks.KindAdminInit, func(ctx context.Context, event hooks.Event) error {
		received = append(received, event.(hooks.AdminInitEvent))
		origins = append(origins, requestctx.Origin(ctx))
		return errors.New("scan failed")
	})

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())

	nextCalled := false
	handler := fx.handlers.AdminInit()(func(router.Context) error {
		nextCalled = true
		return nil
	})
	require.NoError(t, handler(ctx))
	require.True(t, nextCalled)
	require.Len(t, received, 1)
	require.Equal(t, actor.ID, received[0].Actor.ID)
	require.Equal(t, []string{"203.0.113.7"}, origins)
}

func TestAdminInitSkipsHookWithoutActor(t *testing.T) {
	fx := newFixture(t, nil)
	called := false
	fx.dispatcher.On(hooks.KindAdminInit, func(context.Context, hooks.Event) error {
		called = true
		return nil
	})

	ctx := router.NewMockContext()
	handler := fx.handlers.AdminInit()(func(router.Context) error { return nil })
	require.NoError(t, handler(ctx))
	require.False(t, called)
}

func TestIngestEmitsDecodedEvent(t *testing.T) {
	fx := newFixture(t, adminActor())
	var received []hooks.PostSavedEvent
	fx.dispatcher.On(hooks.KindPostSaved, func(_ context.Context, event hooks.Event) error {
		received = append(received, event.(hooks.PostSavedEvent))
		return nil
	})

	err := fx.handlers.Ingest(context.Background(), hooks.KindPostSaved, []byte(`{"post_id":3,"title":"Hello","status":"publish"}`))
	require.NoError(t, err)
	require.Len(t, received, 1)
	require.Equal(t, "Hello", received[0].Title)
}

func TestIngestRejectsUnknownKind(t *testing.T) {
	fx := newFixture(t, adminActor())

	err := fx.handlers.Ingest(context.Background(), hooks.Kind("cron"), nil)
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, statusFor(err))
}

func TestIngestHookUnauthenticated(t *testing.T) {
	fx := newFixture(t, nil)

	ctx := router.NewMockContext()
	ctx.On("JSON", http.StatusUnauthorized, mock.MatchedBy(unauthorizedPayload)).Return(nil)

	require.NoError(t, fx.handlers.IngestHook(ctx))
	ctx.AssertCalled(t, "JSON", http.StatusUnauthorized, mock.MatchedBy(unauthorizedPayload))
}

func TestRequestOriginStoresClientIP(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("IP").Return("198.51.100.4")
	var stored context.Context
	ctx.On("SetContext", mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(0).(context.Context)
	}).Return()

	nextCalled := false
	handler := RequestOrigin(nil)(func(router.Context) error {
		nextCalled = true
		return nil
	})

	require.NoError(t, handler(ctx))
	require.True(t, nextCalled)
	require.NotNil(t, stored)
	require.Equal(t, "198.51.100.4", requestctx.Origin(stored))
}
