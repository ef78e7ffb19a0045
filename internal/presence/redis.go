package presence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keyPrefix = "presence:"

var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis keeps the presence table in redis. Reads that fail are logged and
// treated as offline.
type Redis struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedis(client *redis.Client, log *zap.Logger) *Redis {
	return &Redis{client: client, log: log}
}

// OpenRedis returns an empty presence table: entries left by an earlier
// process are cleared first.
func OpenRedis(ctx context.Context, client *redis.Client, log *zap.Logger) (*Redis, error) {
	r := NewRedis(client, log)
	n, err := r.Reset(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		log.Info("cleared stale presence entries", zap.Int("entries", n))
	}
	return r, nil
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

func (r *Redis) Set(ctx context.Context, userID uuid.UUID, connID string) error {
	if err := r.client.Set(ctx, key(userID), connID, 0).Err(); err != nil {
		return fmt.Errorf("presence set %s: %w", userID, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, userID uuid.UUID) (string, bool) {
	connID, err := r.client.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		r.log.Warn("presence lookup failed", zap.String("userId", userID.String()), zap.Error(err))
		return "", false
	}
	return connID, true
}

func (r *Redis) Remove(ctx context.Context, userID uuid.UUID, connID string) bool {
	n, err := compareAndDelete.Run(ctx, r.client, []string{key(userID)}, connID).Int()
	if err != nil {
		r.log.Warn("presence remove failed", zap.String("userId", userID.String()), zap.Error(err))
		return false
	}
	return n == 1
}

func (r *Redis) Has(ctx context.Context, userID uuid.UUID) bool {
	_, ok := r.Get(ctx, userID)
	return ok
}

// Reset deletes every presence entry. Entries name connections of the process
// that wrote them, so a starting process must not inherit them.
func (r *Redis) Reset(ctx context.Context) (int, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("presence scan: %w", err)
	}
	deleted := 0
	for len(keys) > 0 {
		n := len(keys)
		if n > 100 {
			n = 100
		}
		d, err := r.client.Del(ctx, keys[:n]...).Result()
		if err != nil {
			return deleted, fmt.Errorf("presence reset: %w", err)
		}
		deleted += int(d)
		keys = keys[n:]
	}
	return deleted, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
