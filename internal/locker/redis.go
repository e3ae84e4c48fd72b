package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/atharvakonge/cash-or-crash/internal/logger"
)

const (
	lockTTL     = 30 * time.Second
	lockBackoff = 25 * time.Millisecond
)

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisLocks holds team locks in Redis with bsm/redislock.
type RedisLocks struct {
	client *redislock.Client
	prefix string
}

// NewRedisLocks builds a locker on top of an open Redis client.
func NewRedisLocks(rdb *redis.Client) *RedisLocks {
	return &RedisLocks{
		client: redislock.New(rdb),
		prefix: "cashorcrash:team",
	}
}

// LockTeam retries until the lock is obtained or ctx is done.
func (rl *RedisLocks) LockTeam(ctx context.Context, teamID int64) (func(), error) {
	key := fmt.Sprintf("%s:%d", rl.prefix, teamID)
	lock, err := rl.client.Obtain(ctx, key, lockTTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(lockBackoff),
	})
	if errors.Is(err, redislock.ErrNotObtained) || ctx.Err() != nil {
		return nil, ErrNotObtained
	} else if err != nil {
		return nil, fmt.Errorf("obtain lock for team %d: %w", teamID, err)
	}

	return func() {
		// Release with a fresh context: the caller's may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.WithTeam(teamID).Warn("failed to release redis lock", zap.Error(err))
		}
	}, nil
}
