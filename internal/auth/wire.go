package auth

import (
	"chatrelay/config"
	"chatrelay/infrastructure"
	"chatrelay/internal/realtime"

	"github.com/google/wire"
)

func ProvideTokens(cfg *config.Config) *infrastructure.Tokens {
	return infrastructure.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
}

var Set = wire.NewSet(
	ProvideTokens,
	NewUseCase,
	NewJSONHandler,
	wire.Bind(new(Broadcaster), new(*realtime.Notifier)),
)
