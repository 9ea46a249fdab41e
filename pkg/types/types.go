package types

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventRecord is one audit-log row capturing a single tracked action.
// ActorID is uuid.Nil when no authenticated actor triggered the event (for
// example a background scan).
type EventRecord struct {
	ID            int64
	ActorID       uuid.UUID
	Action        string
	Details       string
	OriginAddress string
	OccurredAt    time.Time
}

// HasActor reports whether the record is attributed to an authenticated actor.
func (r EventRecord) HasActor() bool {
	return r.ActorID != uuid.Nil
}

// EventStore is the append-mostly persistence contract for event records.
// Rows are never updated once appended; DeleteOlderThan is the only removal
// path.
type EventStore interface {
	Append(ctx context.Context, record EventRecord) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]EventRecord, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// ActivityStats summarizes stored records per action.
type ActivityStats struct {
	Total    int
	ByAction map[string]int
}

// ActivityStatsReader is implemented by stores that can aggregate counts.
type ActivityStatsReader interface {
	ActivityStats(ctx context.Context, since *time.Time) (ActivityStats, error)
}

// ActivitySink receives records after they were appended to the store. Keep
// it limited to Log so secondary sinks (stream exporters, hooks) stay
// swappable.
type ActivitySink interface {
	Log(context.Context, EventRecord) error
}

// ActivitySinkFunc adapts a function into an ActivitySink.
type ActivitySinkFunc func(context.Context, EventRecord) error

// Log implements ActivitySink.
func (f ActivitySinkFunc) Log(ctx context.Context, record EventRecord) error {
	if f == nil {
		return nil
	}
	return f(ctx, record)
}

// PresenceEntry is the per-actor "last active" timestamp. There is one entry
// per actor, overwritten on each observed activity.
type PresenceEntry struct {
	ActorID      uuid.UUID
	LastActiveAt time.Time
}

// PresenceRepository persists presence entries.
type PresenceRepository interface {
	Touch(ctx context.Context, actorID uuid.UUID, at time.Time) error
	// ListSince returns entries with LastActiveAt >= since ordered by
	// LastActiveAt descending.
	ListSince(ctx context.Context, since time.Time) ([]PresenceEntry, error)
}

// PresencePruner is implemented by presence stores that can drop entries
// last seen before a cutoff.
type PresencePruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// PresenceTracker records and lists actor activity timestamps.
type PresenceTracker interface {
	MarkActive(ctx context.Context, actorID uuid.UUID) error
	ListActive(ctx context.Context, within time.Duration) ([]PresenceEntry, error)
}

// ActiveActor is the display payload for the "currently active" views.
type ActiveActor struct {
	ActorID     uuid.UUID `json:"-"`
	DisplayName string    `json:"display_name"`
	LastActive  string    `json:"last_active"`
}

// FileTimes maps a file path to its last observed modification time (unix
// seconds).
type FileTimes map[string]int64

// Clone returns a detached copy of the mapping.
func (f FileTimes) Clone() FileTimes {
	out := make(FileTimes, len(f))
	for path, mtime := range f {
		out[path] = mtime
	}
	return out
}

// FileWatchStore persists the file watch mapping as a single value.
type FileWatchStore interface {
	LoadFileTimes(ctx context.Context) (FileTimes, error)
	SaveFileTimes(ctx context.Context, times FileTimes) error
}

// OptionStore is the host-wide configuration storage.
type OptionStore interface {
	GetOption(ctx context.Context, name string) (any, bool, error)
	UpdateOption(ctx context.Context, name string, value any) error
}

// Actor is the directory view of an account on the host platform.
type Actor struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	Roles       []string
}

// ActorDirectory resolves actor metadata for display purposes.
type ActorDirectory interface {
	GetActor(ctx context.Context, id uuid.UUID) (*Actor, error)
}

// SessionSource lists the authenticated sessions currently considered open.
type SessionSource interface {
	ActiveSessions(ctx context.Context) ([]ActorRef, error)
}

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// Logger captures basic logging hooks used by the tracker.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// Metrics receives counters emitted by the tracker commands and queries.
type Metrics interface {
	EventLogged(action string)
	LogFailed()
	RetentionDeleted(count int)
	CodeChanges(count int)
	ActiveActors(count int)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

// EventLogged implements Metrics.
func (NopMetrics) EventLogged(string) {}

// LogFailed implements Metrics.
func (NopMetrics) LogFailed() {}

// RetentionDeleted implements Metrics.
func (NopMetrics) RetentionDeleted(int) {}

// CodeChanges implements Metrics.
func (NopMetrics) CodeChanges(int) {}

// ActiveActors implements Metrics.
func (NopMetrics) ActiveActors(int) {}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = errors.New("go-user-tracker: actor reference required")
	// ErrActionRequired indicates an event record is missing its action.
	ErrActionRequired = errors.New("go-user-tracker: action required")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-user-tracker: service not ready")
	// ErrMissingEventStore occurs when no event store was supplied.
	ErrMissingEventStore = errors.New("go-user-tracker: missing event store")
	// ErrMissingPresenceRepository occurs when presence commands lack storage.
	ErrMissingPresenceRepository = errors.New("go-user-tracker: missing presence repository")
	// ErrMissingPresenceTracker occurs when presence commands lack a tracker.
	ErrMissingPresenceTracker = errors.New("go-user-tracker: missing presence tracker")
	// ErrMissingActorDirectory occurs when queries cannot resolve actor names.
	ErrMissingActorDirectory = errors.New("go-user-tracker: missing actor directory")
	// ErrMissingFileWatchStore occurs when the code scan lacks a mapping store.
	ErrMissingFileWatchStore = errors.New("go-user-tracker: missing file watch store")
	// ErrMissingOptionStore occurs when no option store was supplied.
	ErrMissingOptionStore = errors.New("go-user-tracker: missing option store")
	// ErrMissingSessionSource occurs when presence ticks lack a session source.
	ErrMissingSessionSource = errors.New("go-user-tracker: missing session source")
)
