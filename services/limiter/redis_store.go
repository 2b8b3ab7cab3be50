package limiter

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisStoreOpts struct {
	UuidProvider func() uuid.UUID
}

// RedisStore keeps each window as a sorted set scored by attempt time in
// microseconds, so several API instances share one view of the limit.
type RedisStore struct {
	client redis.Cmdable
	newID  func() uuid.UUID
}

func NewRedisStore(client redis.Cmdable, opts *RedisStoreOpts) *RedisStore {
	s := &RedisStore{client: client, newID: uuid.New}
	if opts != nil && opts.UuidProvider != nil {
		s.newID = opts.UuidProvider
	}
	return s
}

func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) ([]time.Time, error) {
	nowScore := now.UnixMicro()
	windowStart := now.Add(-window).UnixMicro()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(nowScore),
		Member: strconv.FormatInt(nowScore, 10) + ":" + s.newID().String(),
	})
	pipe.PExpire(ctx, key, window)
	rangeCmd := pipe.ZRangeWithScores(ctx, key, 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	members := rangeCmd.Val()
	stamps := make([]time.Time, 0, len(members))
	for _, m := range members {
		stamps = append(stamps, time.UnixMicro(int64(m.Score)))
	}
	return stamps, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
