package locksvc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/workflow"
)

// releases the key only when it still holds our token
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	keyPrefix  = "admission:lock:"
	retryDelay = 50 * time.Millisecond
)

type Redis struct {
	client *redis.Client
	unlock *redis.Script
	ttl    time.Duration
	wait   time.Duration
	logger core.Logger
}

var _ workflow.Locker = (*Redis)(nil) // interface compliance check

func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// NewRedis returns a lock held at most ttl, so that a crashed holder cannot block a proposition forever.
func NewRedis(client *redis.Client, ttl, wait time.Duration, logger core.Logger) *Redis {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Redis{
		client: client,
		unlock: redis.NewScript(unlockScript),
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

func (l *Redis) Lock(ctx context.Context, key string) (func(), error) {
	key = keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrap(err, "acquiring redis lock")
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		if time.Now().After(deadline) {
			return nil, workflow.ErrBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

func (l *Redis) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.unlock.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		l.logger.Warn("releasing redis lock", err, map[string]interface{}{"key": key})
	}
}
