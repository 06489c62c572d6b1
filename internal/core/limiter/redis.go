package limiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"go-contacts-api/internal/core/config"
)

// Redis is a fixed-window counter shared by every API instance.
type Redis struct {
	RDB    *redis.Client
	prefix string
	n      int
	window time.Duration
	now    func() time.Time
}

func NewRedisClient(c config.Redis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
}

func NewRedis(rdb *redis.Client, prefix string, n int, window time.Duration) *Redis {
	return &Redis{RDB: rdb, prefix: prefix, n: n, window: window, now: time.Now}
}

func (r *Redis) key(k string) string {
	slot := r.now().UnixNano() / int64(r.window)
	return r.prefix + ":" + k + ":" + strconv.FormatInt(slot, 10)
}

func (r *Redis) Allow(ctx context.Context, k string) (bool, error) {
	key := r.key(k)
	var incr *redis.IntCmd
	_, err := r.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, r.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(r.n), nil
}
