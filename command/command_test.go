package command

import (
	"context"
	"errors"
	"testing"
	"time"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-user-tracker/pkg/requestctx"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/goliatone/go-user-tracker/scanner"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestActivityLogCommand_AppendsRecordWithOrigin(t *testing.T) {
	store := &memoryEventStore{}
	sink := &recordingActivitySink{}
	metrics := &recordingMetrics{}
	clock := fixedClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	cmd := NewActivityLogCommand(ActivityLogConfig{
		Store:   store,
		Sinks:   []types.ActivitySink{sink},
		Clock:   clock,
		Metrics: metrics,
	})

	actor := uuid.New()
	ctx := requestctx.WithOrigin(context.Background(), "203.0.113.9")
	result := &types.EventRecord{}
	err := cmd.Execute(ctx, ActivityLogInput{
		ActorID: actor,
		Action:  "blogname",
		Details: "<script>kept</script>",
		Result:  result,
	})
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	stored := store.records[0]
	require.Equal(t, actor, stored.ActorID)
	require.Equal(t, "blogname", stored.Action)
	require.Equal(t, "<script>kept</script>", stored.Details)
	require.Equal(t, "203.0.113.9", stored.OriginAddress)
	require.Equal(t, clock.t, stored.OccurredAt)

	require.Equal(t, int64(1), result.ID)
	require.Len(t, sink.records, 1)
	require.Equal(t, int64(1), sink.records[0].ID)
	require.Equal(t, []string{"blogname"}, metrics.logged)
}

func TestActivityLogCommand_MissingActorIsStored(t *testing.T) {
	store := &memoryEventStore{}
	cmd := NewActivityLogCommand(ActivityLogConfig{Store: store})

	require.NoError(t, cmd.Log(context.Background(), uuid.Nil, types.ActionCodeModified, "File: x"))
	require.Len(t, store.records, 1)
	require.False(t, store.records[0].HasActor())
	require.Empty(t, store.records[0].OriginAddress)
}

func TestActivityLogCommand_RequiresAction(t *testing.T) {
	store := &memoryEventStore{}
	cmd := NewActivityLogCommand(ActivityLogConfig{Store: store})

	err := cmd.Execute(context.Background(), ActivityLogInput{Action: "  "})
	require.ErrorIs(t, err, ErrActionRequired)
	require.Empty(t, store.records)
}

func TestActivityLogCommand_ReturnsPersistenceError(t *testing.T) {
	store := &memoryEventStore{err: types.PersistenceError(errors.New("db down"), "append failed")}
	sink := &recordingActivitySink{}
	metrics := &recordingMetrics{}
	cmd := NewActivityLogCommand(ActivityLogConfig{
		Store:   store,
		Sinks:   []types.ActivitySink{sink},
		Metrics: metrics,
	})

	err := cmd.Log(context.Background(), uuid.New(), types.ActionLogin, "")
	require.True(t, types.IsPersistenceError(err))
	require.Empty(t, sink.records)
	require.Equal(t, 1, metrics.failures)
}

func TestActivityLogCommand_SinkFailureDoesNotFail(t *testing.T) {
	store := &memoryEventStore{}
	sink := &recordingActivitySink{err: errors.New("broker unavailable")}
	cmd := NewActivityLogCommand(ActivityLogConfig{
		Store: store,
		Sinks: []types.ActivitySink{nil, sink},
	})

	require.NoError(t, cmd.Log(context.Background(), uuid.New(), types.ActionLogin, ""))
	require.Len(t, store.records, 1)
	require.Len(t, sink.records, 1)
}

func TestActivityLogCommand_RequiresStore(t *testing.T) {
	cmd := NewActivityLogCommand(ActivityLogConfig{})
	require.ErrorIs(t, cmd.Log(context.Background(), uuid.Nil, types.ActionLogin, ""), types.ErrMissingEventStore)
}

func TestRetentionSweepCommand_UsesDefaultRetention(t *testing.T) {
	store := &memoryEventStore{deleteCount: 3}
	metrics := &recordingMetrics{}
	cmd := NewRetentionSweepCommand(RetentionSweepConfig{Store: store, Metrics: metrics})

	deleted := 0
	require.NoError(t, cmd.Execute(context.Background(), RetentionSweepInput{Deleted: &deleted}))
	require.Equal(t, 3, deleted)
	require.Equal(t, []time.Duration{DefaultRetention}, store.deleteAges)
	require.Equal(t, 3, metrics.retentionDeleted)
	require.Equal(t, DefaultRetention, cmd.Retention())
}

func TestRetentionSweepCommand_OverrideAndValidation(t *testing.T) {
	store := &memoryEventStore{}
	cmd := NewRetentionSweepCommand(RetentionSweepConfig{Store: store, Retention: 48 * time.Hour})

	require.NoError(t, cmd.Execute(context.Background(), RetentionSweepInput{}))
	require.NoError(t, cmd.Execute(context.Background(), RetentionSweepInput{Retention: time.Hour}))
	require.Equal(t, []time.Duration{48 * time.Hour, time.Hour}, store.deleteAges)

	err := cmd.Execute(context.Background(), RetentionSweepInput{Retention: -time.Hour})
	require.ErrorIs(t, err, ErrRetentionNegative)
}

func TestRetentionSweepCommand_PropagatesFailure(t *testing.T) {
	store := &memoryEventStore{err: errors.New("locked")}
	cmd := NewRetentionSweepCommand(RetentionSweepConfig{Store: store})

	require.Error(t, cmd.Execute(context.Background(), RetentionSweepInput{}))
	require.Len(t, store.deleteAges, 1)
}

func TestPresenceMarkCommand(t *testing.T) {
	tracker := &recordingTracker{}
	cmd := NewPresenceMarkCommand(tracker)

	actor := uuid.New()
	require.NoError(t, cmd.Execute(context.Background(), PresenceMarkInput{ActorID: actor}))
	require.Equal(t, []uuid.UUID{actor}, tracker.marked)

	require.ErrorIs(t, cmd.Execute(context.Background(), PresenceMarkInput{}), ErrActorRequired)
	require.ErrorIs(t, NewPresenceMarkCommand(nil).Execute(context.Background(), PresenceMarkInput{ActorID: actor}), types.ErrMissingPresenceTracker)
}

func TestPresenceTickCommand_MarksAdministratorsOnly(t *testing.T) {
	admin := uuid.New()
	editor := uuid.New()
	sessions := staticSessions{
		{ID: admin, Roles: []string{types.RoleAdministrator}},
		{ID: editor, Roles: []string{"editor"}},
		{},
	}
	tracker := &recordingTracker{}
	cmd := NewPresenceTickCommand(PresenceTickConfig{Sessions: sessions, Tracker: tracker})

	marked := 0
	require.NoError(t, cmd.Execute(context.Background(), PresenceTickInput{Marked: &marked}))
	require.Equal(t, 1, marked)
	require.Equal(t, []uuid.UUID{admin}, tracker.marked)
}

func TestPresenceTickCommand_ContinuesAfterFailure(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	sessions := staticSessions{
		{ID: first, Roles: []string{types.RoleAdministrator}},
		{ID: second, Roles: []string{types.RoleAdministrator}},
	}
	tracker := &recordingTracker{failFor: first}
	cmd := NewPresenceTickCommand(PresenceTickConfig{Sessions: sessions, Tracker: tracker})

	err := cmd.Execute(context.Background(), PresenceTickInput{})
	require.Error(t, err)
	require.Equal(t, []uuid.UUID{second}, tracker.marked)
}

type recordingPruner struct {
	cutoffs []time.Time
	removed int64
}

func (p *recordingPruner) Prune(_ context.Context, before time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, before)
	return p.removed, nil
}

func TestPresenceTickCommand_PrunesStaleEntries(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pruner := &recordingPruner{removed: 3}
	cmd := NewPresenceTickCommand(PresenceTickConfig{
		Sessions:  staticSessions{},
		Tracker:   &recordingTracker{},
		Pruner:    pruner,
		Retention: 2 * time.Hour,
		Clock:     types.ClockFunc(func() time.Time { return now }),
	})

	var pruned int64
	require.NoError(t, cmd.Execute(context.Background(), PresenceTickInput{Pruned: &pruned}))
	require.Equal(t, int64(3), pruned)
	require.Equal(t, []time.Time{now.Add(-2 * time.Hour)}, pruner.cutoffs)
}

func TestPresenceTickCommand_RequiresDependencies(t *testing.T) {
	cmd := NewPresenceTickCommand(PresenceTickConfig{Tracker: &recordingTracker{}})
	require.ErrorIs(t, cmd.Execute(context.Background(), PresenceTickInput{}), types.ErrMissingSessionSource)

	cmd = NewPresenceTickCommand(PresenceTickConfig{Sessions: staticSessions{}})
	require.ErrorIs(t, cmd.Execute(context.Background(), PresenceTickInput{}), types.ErrMissingPresenceTracker)
}

func TestCodeScanCommand_LogsChangesAndPersistsMapping(t *testing.T) {
	store := &memoryFileStore{times: types.FileTimes{"/t/a.php": 100, "/t/gone.php": 5}}
	events := &recordingEventLogger{}
	metrics := &recordingMetrics{}
	walk := func(roots []string) (types.FileTimes, error) {
		require.Equal(t, []string{"/t"}, roots)
		return types.FileTimes{"/t/a.php": 200, "/t/new.php": 1}, nil
	}
	cmd := NewCodeScanCommand(CodeScanConfig{
		Store:   store,
		Events:  events,
		Roots:   []string{"/t"},
		Walk:    walk,
		Metrics: metrics,
	})

	actor := uuid.New()
	var changes []scanner.Change
	require.NoError(t, cmd.Execute(context.Background(), CodeScanInput{ActorID: actor, Changes: &changes}))

	require.Len(t, changes, 1)
	require.Len(t, events.calls, 1)
	require.Equal(t, actor, events.calls[0].actorID)
	require.Equal(t, types.ActionCodeModified, events.calls[0].action)
	require.Equal(t, `File: <a href="/t/a.php" target="_blank">a.php</a>`, events.calls[0].details)
	require.Equal(t, 1, metrics.codeChanges)

	require.Equal(t, 1, store.saves)
	require.Equal(t, types.FileTimes{"/t/a.php": 200, "/t/new.php": 1, "/t/gone.php": 5}, store.times)
}

func TestCodeScanCommand_SecondRunIsQuiet(t *testing.T) {
	store := &memoryFileStore{times: types.FileTimes{}}
	events := &recordingEventLogger{}
	walk := func([]string) (types.FileTimes, error) {
		return types.FileTimes{"/t/a.php": 100}, nil
	}
	cmd := NewCodeScanCommand(CodeScanConfig{Store: store, Events: events, Walk: walk})

	require.NoError(t, cmd.Execute(context.Background(), CodeScanInput{}))
	require.NoError(t, cmd.Execute(context.Background(), CodeScanInput{}))
	require.Empty(t, events.calls)
	require.Equal(t, 2, store.saves)
}

func TestCodeScanCommand_FeatureGateDisabled(t *testing.T) {
	store := &memoryFileStore{times: types.FileTimes{}}
	gate := &stubFeatureGate{enabled: false}
	walked := false
	cmd := NewCodeScanCommand(CodeScanConfig{
		Store:       store,
		Events:      &recordingEventLogger{},
		FeatureGate: gate,
		Walk: func([]string) (types.FileTimes, error) {
			walked = true
			return nil, nil
		},
	})

	require.NoError(t, cmd.Execute(context.Background(), CodeScanInput{ActorID: uuid.New()}))
	require.False(t, walked)
	require.Zero(t, store.saves)
	require.Equal(t, []string{FeatureCodeScan}, gate.keys)
}

func TestCodeScanCommand_LogFailuresDoNotStopScan(t *testing.T) {
	store := &memoryFileStore{times: types.FileTimes{"/t/a.php": 1, "/t/b.php": 1}}
	events := &recordingEventLogger{err: errors.New("store down")}
	cmd := NewCodeScanCommand(CodeScanConfig{
		Store:  store,
		Events: events,
		Walk: func([]string) (types.FileTimes, error) {
			return types.FileTimes{"/t/a.php": 2, "/t/b.php": 2}, nil
		},
	})

	require.NoError(t, cmd.Execute(context.Background(), CodeScanInput{}))
	require.Len(t, events.calls, 2)
	require.Equal(t, int64(2), store.times["/t/b.php"])
}

type memoryEventStore struct {
	records     []types.EventRecord
	err         error
	deleteCount int
	deleteAges  []time.Duration
}

func (m *memoryEventStore) Append(_ context.Context, record types.EventRecord) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	record.ID = int64(len(m.records) + 1)
	m.records = append(m.records, record)
	return record.ID, nil
}

func (m *memoryEventStore) ListRecent(context.Context, int) ([]types.EventRecord, error) {
	return m.records, m.err
}

func (m *memoryEventStore) DeleteOlderThan(_ context.Context, age time.Duration) (int, error) {
	m.deleteAges = append(m.deleteAges, age)
	if m.err != nil {
		return 0, m.err
	}
	return m.deleteCount, nil
}

type recordingActivitySink struct {
	records []types.EventRecord
	err     error
}

func (r *recordingActivitySink) Log(_ context.Context, record types.EventRecord) error {
	r.records = append(r.records, record)
	return r.err
}

type recordingMetrics struct {
	types.NopMetrics
	logged           []string
	failures         int
	retentionDeleted int
	codeChanges      int
}

func (r *recordingMetrics) EventLogged(action string) { r.logged = append(r.logged, action) }
func (r *recordingMetrics) LogFailed()                { r.failures++ }
func (r *recordingMetrics) RetentionDeleted(n int)    { r.retentionDeleted += n }
func (r *recordingMetrics) CodeChanges(n int)         { r.codeChanges += n }

type recordingTracker struct {
	marked  []uuid.UUID
	failFor uuid.UUID
}

func (r *recordingTracker) MarkActive(_ context.Context, actorID uuid.UUID) error {
	if actorID == r.failFor {
		return errors.New("presence store down")
	}
	r.marked = append(r.marked, actorID)
	return nil
}

func (r *recordingTracker) ListActive(context.Context, time.Duration) ([]types.PresenceEntry, error) {
	return nil, nil
}

type staticSessions []types.ActorRef

func (s staticSessions) ActiveSessions(context.Context) ([]types.ActorRef, error) {
	return s, nil
}

type memoryFileStore struct {
	times types.FileTimes
	saves int
}

func (m *memoryFileStore) LoadFileTimes(context.Context) (types.FileTimes, error) {
	return m.times.Clone(), nil
}

func (m *memoryFileStore) SaveFileTimes(_ context.Context, times types.FileTimes) error {
	m.saves++
	m.times = times.Clone()
	return nil
}

type eventCall struct {
	actorID uuid.UUID
	action  string
	details string
}

type recordingEventLogger struct {
	calls []eventCall
	err   error
}

func (r *recordingEventLogger) Log(_ context.Context, actorID uuid.UUID, action, details string) error {
	r.calls = append(r.calls, eventCall{actorID: actorID, action: action, details: details})
	return r.err
}

type stubFeatureGate struct {
	enabled bool
	err     error
	keys    []string
}

func (s *stubFeatureGate) Enabled(_ context.Context, key string, _ ...featuregate.ResolveOption) (bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return false, s.err
	}
	return s.enabled, nil
}

type fixedClock struct {
	t time.Time
}

func (f fixedClock) Now() time.Time {
	return f.t
}
