package flowlock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/adnumaro/storyarn/pkg/errors"
)

const keyPrefix = "storyarn:flowlock:"

// releaseScript deletes the lock key only when it still holds our token,
// so a lease that expired and was re-acquired by someone else is not
// released out from under them.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by a shared Redis instance, for deployments
// where several engine processes sync against the same database.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a Redis-backed locker. A non-positive ttl falls back
// to DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Acquire implements Locker via SET NX with a per-acquisition token.
func (r *Redis) Acquire(ctx context.Context, flowID string) (func(ctx context.Context) error, error) {
	key := keyPrefix + flowID
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "acquire lock for flow %s", flowID)
	}
	if !ok {
		return nil, locked(flowID)
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "release lock for flow %s", flowID)
		}
		return nil
	}
	return release, nil
}
