// Package rediscache guarda en Redis la vista "dosis del día" de cada usuario.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"med-reminder/internal/domain/doses"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 2 * time.Minute

type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// DayCache implementa doses.DayCache.
// Cada vista vive en doses:day:{user}:{day}; el set doses:day-keys:{user}
// lista las claves del usuario para poder invalidarlas todas juntas.
type DayCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDayCache(rdb *redis.Client, ttl time.Duration) *DayCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &DayCache{rdb: rdb, ttl: ttl}
}

var _ doses.DayCache = (*DayCache)(nil)

func dayKey(userID, day string) string {
	return fmt.Sprintf("doses:day:%s:%s", userID, day)
}

func indexKey(userID string) string {
	return fmt.Sprintf("doses:day-keys:%s", userID)
}

func (c *DayCache) Get(ctx context.Context, userID, day string) ([]doses.DoseView, bool, error) {
	raw, err := c.rdb.Get(ctx, dayKey(userID, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var out []doses.DoseView
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("decode cached day %s: %w", day, err)
	}
	return out, true, nil
}

func (c *DayCache) Set(ctx context.Context, userID, day string, v []doses.DoseView) error {
	if v == nil {
		v = []doses.DoseView{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	key := dayKey(userID, day)
	idx := indexKey(userID)

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, idx, key)
	// el índice dura lo mismo que la última vista escrita
	pipe.Expire(ctx, idx, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *DayCache) Invalidate(ctx context.Context, userID string) error {
	idx := indexKey(userID)

	keys, err := c.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return err
	}
	keys = append(keys, idx)
	return c.rdb.Del(ctx, keys...).Err()
}
