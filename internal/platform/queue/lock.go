package queue

import (
	"context"
	"fmt"
	"time"

	"codeapt/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// Lock is a single-holder Redis lock identified by a random token.
type Lock struct {
	rdb   redis.UniversalClient
	key   string
	token string
}

// Acquire takes the lock at key for ttl. It returns common.ErrLockNotAcquired when
// another holder owns it.
func Acquire(ctx context.Context, rdb redis.UniversalClient, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("queue.Acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("queue.Acquire %s: %w", key, common.ErrLockNotAcquired)
	}
	return &Lock{rdb: rdb, key: key, token: token}, nil
}

// Release deletes the key only if it is still held with this lock's token.
// It reports whether the key was deleted.
func (l *Lock) Release(ctx context.Context) (bool, error) {
	deleted, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Int64()
	if err != nil {
		return false, fmt.Errorf("queue.Release %s: %w", l.key, err)
	}
	return deleted == 1, nil
}
