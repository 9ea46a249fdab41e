package query

import (
	"context"
	"strings"
	"time"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

// DefaultRecentLimit is the number of rows shown by the admin activity view.
const DefaultRecentLimit = 100

// RecentActivityInput selects how many records to return.
type RecentActivityInput struct {
	Limit int
}

// Type implements gocommand.Message.
func (RecentActivityInput) Type() string {
	return "query.activity.recent"
}

// Validate implements gocommand.Message.
func (RecentActivityInput) Validate() error {
	return nil
}

// ActivityRow is one record of the admin activity view. Details are passed
// through exactly as stored.
type ActivityRow struct {
	ID        int64     `json:"id"`
	ActorID   uuid.UUID `json:"actor_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address"`
	Timestamp time.Time `json:"timestamp"`
}

// RecentActivityQuery lists the newest records enriched with usernames.
type RecentActivityQuery struct {
	store     types.EventStore
	directory types.ActorDirectory
	limit     int
	logger    types.Logger
}

// RecentActivityConfig wires the query.
type RecentActivityConfig struct {
	Store     types.EventStore
	Directory types.ActorDirectory
	Limit     int
	Logger    types.Logger
}

// NewRecentActivityQuery constructs the query.
func NewRecentActivityQuery(cfg RecentActivityConfig) *RecentActivityQuery {
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &RecentActivityQuery{
		store:     cfg.Store,
		directory: cfg.Directory,
		limit:     limit,
		logger:    safeLogger(cfg.Logger),
	}
}

var _ gocommand.Querier[RecentActivityInput, []ActivityRow] = (*RecentActivityQuery)(nil)

// Query returns up to the requested number of records, newest first.
func (q *RecentActivityQuery) Query(ctx context.Context, input RecentActivityInput) ([]ActivityRow, error) {
	if q.store == nil {
		return nil, types.ErrMissingEventStore
	}
	limit := input.Limit
	if limit <= 0 {
		limit = q.limit
	}
	records, err := q.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	lookup := newActorLookup(q.directory, q.logger)
	rows := make([]ActivityRow, 0, len(records))
	for _, record := range records {
		username := UnknownUser
		if actor := lookup.get(ctx, record.ActorID); actor != nil {
			if name := strings.TrimSpace(actor.Username); name != "" {
				username = name
			}
		}
		rows = append(rows, ActivityRow{
			ID:        record.ID,
			ActorID:   record.ActorID,
			Username:  username,
			Action:    record.Action,
			Details:   record.Details,
			IPAddress: record.OriginAddress,
			Timestamp: record.OccurredAt,
		})
	}
	return rows, nil
}

// ActivityStatsInput restricts the counters to records created since the
// given time. A nil Since counts everything retained.
type ActivityStatsInput struct {
	Since *time.Time
}

// Type implements gocommand.Message.
func (ActivityStatsInput) Type() string {
	return "query.activity.stats"
}

// Validate implements gocommand.Message.
func (ActivityStatsInput) Validate() error {
	return nil
}

// ActivityStatsQuery aggregates record counts per action.
type ActivityStatsQuery struct {
	reader types.ActivityStatsReader
}

// NewActivityStatsQuery constructs the stats helper.
func NewActivityStatsQuery(reader types.ActivityStatsReader) *ActivityStatsQuery {
	return &ActivityStatsQuery{reader: reader}
}

var _ gocommand.Querier[ActivityStatsInput, types.ActivityStats] = (*ActivityStatsQuery)(nil)

// Query returns aggregate counts for dashboard widgets.
func (q *ActivityStatsQuery) Query(ctx context.Context, input ActivityStatsInput) (types.ActivityStats, error) {
	if q.reader == nil {
		return types.ActivityStats{}, types.ErrMissingEventStore
	}
	return q.reader.ActivityStats(ctx, input.Since)
}
