package presence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the sorted set holding presence timestamps.
const DefaultRedisKey = "tracker:presence"

// RedisRepository keeps presence in a sorted set scored by the last active
// time in unix milliseconds, one member per actor.
type RedisRepository struct {
	client redis.Cmdable
	key    string
}

// RedisOption configures a RedisRepository.
type RedisOption func(*RedisRepository)

// WithRedisKey overrides the sorted set key.
func WithRedisKey(key string) RedisOption {
	return func(r *RedisRepository) {
		if key != "" {
			r.key = key
		}
	}
}

// NewRedisRepository constructs the Redis-backed presence repository.
func NewRedisRepository(client redis.Cmdable, opts ...RedisOption) (*RedisRepository, error) {
	if client == nil {
		return nil, errors.New("presence: redis client required")
	}
	repo := &RedisRepository{
		client: client,
		key:    DefaultRedisKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

var (
	_ types.PresenceRepository = (*RedisRepository)(nil)
	_ types.PresencePruner     = (*RedisRepository)(nil)
)

// Touch overwrites the actor's score.
func (r *RedisRepository) Touch(ctx context.Context, actorID uuid.UUID, at time.Time) error {
	if actorID == uuid.Nil {
		return types.ErrActorRequired
	}
	return r.client.ZAdd(ctx, r.key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: actorID.String(),
	}).Err()
}

// ListSince returns members scored at or after since, most recent first.
func (r *RedisRepository) ListSince(ctx context.Context, since time.Time) ([]types.PresenceEntry, error) {
	members, err := r.client.ZRevRangeByScoreWithScores(ctx, r.key, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.PresenceEntry, 0, len(members))
	for _, member := range members {
		raw, ok := member.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, types.PresenceEntry{
			ActorID:      id,
			LastActiveAt: time.UnixMilli(int64(member.Score)).UTC(),
		})
	}
	return out, nil
}

// Prune drops members last seen before the cutoff and reports how many were
// removed.
func (r *RedisRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	return r.client.ZRemRangeByScore(ctx, r.key, "-inf", "("+strconv.FormatInt(before.UnixMilli(), 10)).Result()
}
