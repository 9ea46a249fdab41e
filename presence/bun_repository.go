package presence

import (
	"context"
	"errors"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryConfig wires the Bun-backed presence repository.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Entry]
}

type presenceStore interface {
	repository.Repository[*Entry]
}

// Repository implements types.PresenceRepository on tracker_presence.
type Repository struct {
	presenceStore
}

// NewRepository constructs the Bun-backed presence repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("presence: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Entry]{
			NewRecord: func() *Entry { return &Entry{} },
			GetID: func(entry *Entry) uuid.UUID {
				if entry == nil {
					return uuid.Nil
				}
				return entry.ID
			},
			SetID: func(entry *Entry, id uuid.UUID) {
				if entry != nil {
					entry.ID = id
				}
			},
		})
	}
	return &Repository{presenceStore: repo}, nil
}

var (
	_ repository.Repository[*Entry] = (*Repository)(nil)
	_ types.PresenceRepository      = (*Repository)(nil)
	_ types.PresencePruner          = (*Repository)(nil)
)

// Touch overwrites the actor's last active timestamp.
func (r *Repository) Touch(ctx context.Context, actorID uuid.UUID, at time.Time) error {
	if actorID == uuid.Nil {
		return types.ErrActorRequired
	}
	entry := &Entry{ID: actorID, LastActiveAt: at.UTC()}
	_, err := r.Get(ctx, repository.SelectBy("id", "=", actorID.String()))
	switch {
	case err == nil:
		_, err = r.Update(ctx, entry)
		return err
	case repository.IsRecordNotFound(err):
		_, err = r.Create(ctx, entry)
		return err
	default:
		return err
	}
}

// ListSince returns entries active at or after since, most recent first.
func (r *Repository) ListSince(ctx context.Context, since time.Time) ([]types.PresenceEntry, error) {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("last_active_at >= ?", since.UTC()).
				OrderExpr("last_active_at DESC")
		},
	}
	rows, _, err := r.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	out := make([]types.PresenceEntry, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, types.PresenceEntry{
			ActorID:      row.ID,
			LastActiveAt: row.LastActiveAt.UTC(),
		})
	}
	return out, nil
}

// Prune removes entries last active before the cutoff.
func (r *Repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	stale, err := r.Count(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("last_active_at < ?", before.UTC())
	})
	if err != nil || stale == 0 {
		return 0, err
	}
	if err := r.DeleteWhere(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("last_active_at < ?", before.UTC())
	}); err != nil {
		return 0, err
	}
	return int64(stale), nil
}
