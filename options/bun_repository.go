package options

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/goliatone/go-user-tracker/hooks"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrOptionNameRequired indicates an option call without a name.
var ErrOptionNameRequired = errors.New("options: name required")

// RepositoryConfig wires dependencies for the Bun-backed option store.
type RepositoryConfig struct {
	DB         *bun.DB
	Repository repository.Repository[*Record]
	// Dispatcher receives option_updated events. Optional.
	Dispatcher *hooks.Dispatcher
	Clock      types.Clock
	Logger     types.Logger
	// SilentOptions are written without emitting option_updated.
	// FileTimesOption is always silent.
	SilentOptions []string
}

type optionStore interface {
	repository.Repository[*Record]
}

// Repository implements types.OptionStore.
type Repository struct {
	optionStore
	dispatcher *hooks.Dispatcher
	clock      types.Clock
	logger     types.Logger
	silent     map[string]struct{}
}

// NewRepository constructs the default option repository.
func NewRepository(cfg RepositoryConfig, options ...RepositoryOption) (*Repository, error) {
	if cfg.Repository == nil && cfg.DB == nil {
		return nil, errors.New("options: db or repository required")
	}
	repo := cfg.Repository
	if repo == nil {
		repo = repository.NewRepository(cfg.DB, repository.ModelHandlers[*Record]{
			NewRecord: func() *Record { return &Record{} },
			GetID: func(rec *Record) uuid.UUID {
				if rec == nil {
					return uuid.Nil
				}
				return rec.ID
			},
			SetID: func(rec *Record, id uuid.UUID) {
				if rec != nil {
					rec.ID = id
				}
			},
		})
	}
	opts := applyRepositoryOptions(options)
	if opts.CacheEnabled {
		if _, cached := repo.(*repositorycache.CachedRepository[*Record]); !cached {
			cacheCfg := cache.DefaultConfig()
			if opts.CacheConfig != nil {
				cacheCfg = *opts.CacheConfig
			}
			cacheService, err := cache.NewCacheService(cacheCfg)
			if err != nil {
				return nil, err
			}
			repo = repositorycache.New(repo, cacheService, cache.NewDefaultKeySerializer())
		}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	silent := map[string]struct{}{FileTimesOption: {}}
	for _, name := range cfg.SilentOptions {
		if name = strings.TrimSpace(name); name != "" {
			silent[name] = struct{}{}
		}
	}

	return &Repository{
		optionStore: repo,
		dispatcher:  cfg.Dispatcher,
		clock:       clock,
		logger:      logger,
		silent:      silent,
	}, nil
}

var _ types.OptionStore = (*Repository)(nil)

// GetOption returns the decoded option value and whether it exists.
func (r *Repository) GetOption(ctx context.Context, name string) (any, bool, error) {
	var value any
	found, err := r.loadJSON(ctx, name, &value)
	if err != nil || !found {
		return nil, found, err
	}
	return value, true, nil
}

// UpdateOption stores value under name. Writing an unchanged value is a
// no-op; changing an existing value emits option_updated with the previous
// and new values.
func (r *Repository) UpdateOption(ctx context.Context, name string, value any) error {
	return r.put(ctx, name, value)
}

func (r *Repository) put(ctx context.Context, name string, value any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrOptionNameRequired
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	now := r.clock.Now()

	existing, err := r.findExisting(ctx, name)
	switch {
	case err == nil && existing != nil:
		if sameJSON(existing.Value, encoded) {
			return nil
		}
		previous := existing.Value
		payload := &Record{
			ID:        existing.ID,
			Name:      existing.Name,
			Value:     string(encoded),
			UpdatedAt: now,
		}
		if _, err := r.Update(ctx, payload); err != nil {
			return err
		}
		r.emitUpdated(ctx, name, previous, value)
		return nil
	case repository.IsRecordNotFound(err):
		payload := &Record{
			ID:        uuid.New(),
			Name:      name,
			Value:     string(encoded),
			UpdatedAt: now,
		}
		_, err := r.Create(ctx, payload)
		return err
	default:
		return err
	}
}

// sameJSON compares a stored value with a fresh encoding by meaning, since
// JSONB columns reorder keys and drop whitespace.
func sameJSON(stored string, encoded []byte) bool {
	if stored == string(encoded) {
		return true
	}
	var a, b any
	if err := json.Unmarshal([]byte(stored), &a); err != nil {
		return false
	}
	if err := json.Unmarshal(encoded, &b); err != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func (r *Repository) emitUpdated(ctx context.Context, name, previous string, value any) {
	if r.dispatcher == nil {
		return
	}
	if _, silent := r.silent[name]; silent {
		return
	}
	var oldValue any
	if err := json.Unmarshal([]byte(previous), &oldValue); err != nil {
		oldValue = previous
	}
	if err := r.dispatcher.Emit(ctx, hooks.OptionUpdatedEvent{
		Option:   name,
		OldValue: oldValue,
		NewValue: value,
	}); err != nil {
		r.logger.Error("option_updated handlers failed", err, "option", name)
	}
}

func (r *Repository) loadJSON(ctx context.Context, name string, dest any) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrOptionNameRequired
	}
	existing, err := r.findExisting(ctx, name)
	if repository.IsRecordNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(existing.Value), dest); err != nil {
		return true, err
	}
	return true, nil
}

func (r *Repository) findExisting(ctx context.Context, name string) (*Record, error) {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("name = ?", name).
				Limit(1)
		},
	}
	rows, _, err := r.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewRecordNotFound()
	}
	return rows[0], nil
}
