package presence

import (
	"context"
	"time"

	"chatrelay/config"
	"chatrelay/internal/cache"

	"go.uber.org/zap"
)

const resetTimeout = 10 * time.Second

// ProvideDirectory selects the configured backend. The redis client is only
// dialed when the redis backend is chosen, and its table starts empty.
func ProvideDirectory(cfg *config.Config, log *zap.Logger) (Directory, func(), error) {
	if cfg.Presence.Backend != config.PresenceRedis {
		return NewMemory(), func() {}, nil
	}

	rc, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()
	dir, err := OpenRedis(ctx, rc.Client, log)
	if err != nil {
		_ = rc.Close()
		return nil, nil, err
	}
	return dir, func() { _ = rc.Close() }, nil
}
