package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/uptrace/bun"
)

const (
	// DefaultListLimit is used when ListRecent receives a non-positive limit.
	DefaultListLimit = 100
	// MaxListLimit caps a single ListRecent page.
	MaxListLimit = 1000
)

// RepositoryConfig wires the Bun-backed event store.
type RepositoryConfig struct {
	DB    *bun.DB
	Clock types.Clock
}

// Repository persists event records and exposes the read helpers used by the
// admin views and the retention sweep.
type Repository struct {
	db    *bun.DB
	clock types.Clock
}

// NewRepository constructs the Bun-backed event store.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.DB == nil {
		return nil, errors.New("activity: db required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Repository{
		db:    cfg.DB,
		clock: clock,
	}, nil
}

var (
	_ types.EventStore          = (*Repository)(nil)
	_ types.ActivityStatsReader = (*Repository)(nil)
)

// Append inserts a new record and returns the assigned id.
func (r *Repository) Append(ctx context.Context, record types.EventRecord) (int64, error) {
	if len(record.Action) > types.MaxActionLength {
		return 0, types.PersistenceError(nil, fmt.Sprintf("activity: action exceeds %d characters", types.MaxActionLength))
	}
	entry := toLogEntry(record)
	entry.ID = 0
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.clock.Now()
	}
	res, err := r.db.NewInsert().
		Model(entry).
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, types.PersistenceError(err, "activity: append failed")
	}
	if entry.ID == 0 && res != nil {
		if id, idErr := res.LastInsertId(); idErr == nil {
			entry.ID = id
		}
	}
	return entry.ID, nil
}

// ListRecent returns up to limit records ordered newest first. Ties on
// created_at are broken by id so insertion order stays stable.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]types.EventRecord, error) {
	limit = normalizeLimit(limit)
	var rows []LogEntry
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("created_at DESC").
		OrderExpr("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, types.PersistenceError(err, "activity: list failed")
	}
	records := make([]types.EventRecord, 0, len(rows))
	for i := range rows {
		records = append(records, toEventRecord(&rows[i]))
	}
	return records, nil
}

// DeleteOlderThan removes every record created before now minus age and
// reports how many rows were removed.
func (r *Repository) DeleteOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := r.clock.Now().Add(-age)
	res, err := r.db.NewDelete().
		Model((*LogEntry)(nil)).
		Where("created_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, types.PersistenceError(err, "activity: retention delete failed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, types.PersistenceError(err, "activity: retention rows affected")
	}
	return int(affected), nil
}

// ActivityStats aggregates counts grouped by action.
func (r *Repository) ActivityStats(ctx context.Context, since *time.Time) (types.ActivityStats, error) {
	stats := types.ActivityStats{
		ByAction: make(map[string]int),
	}
	query := r.db.NewSelect().
		Model((*LogEntry)(nil)).
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("action").
		Group("action")
	if since != nil && !since.IsZero() {
		query = query.Where("created_at >= ?", *since)
	}

	type row struct {
		Action string `bun:"action"`
		Total  int    `bun:"total"`
	}
	var rows []row
	if err := query.Scan(ctx, &rows); err != nil {
		return stats, types.PersistenceError(err, "activity: stats failed")
	}
	total := 0
	for _, rec := range rows {
		stats.ByAction[rec.Action] = rec.Total
		total += rec.Total
	}
	stats.Total = total
	return stats, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func toLogEntry(record types.EventRecord) *LogEntry {
	return &LogEntry{
		ID:        record.ID,
		ActorID:   record.ActorID,
		Action:    record.Action,
		Details:   record.Details,
		IPAddress: record.OriginAddress,
		CreatedAt: record.OccurredAt,
	}
}

func toEventRecord(entry *LogEntry) types.EventRecord {
	if entry == nil {
		return types.EventRecord{}
	}
	return types.EventRecord{
		ID:            entry.ID,
		ActorID:       entry.ActorID,
		Action:        entry.Action,
		Details:       entry.Details,
		OriginAddress: entry.IPAddress,
		OccurredAt:    entry.CreatedAt.UTC(),
	}
}
