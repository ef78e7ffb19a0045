package realtime

import (
	"chatrelay/config"
	"chatrelay/infrastructure"
	"chatrelay/internal/metrics"

	"github.com/google/wire"
	"go.uber.org/zap"
)

func ProvideHub(cfg *config.Config, recorder *metrics.Recorder, log *zap.Logger) *Hub {
	return NewHub(cfg.WS, recorder, log)
}

func ProvideHandler(lifecycle *Lifecycle, cfg *config.Config, log *zap.Logger) *Handler {
	return NewHandler(lifecycle, cfg.WS, log)
}

var Set = wire.NewSet(
	ProvideHub,
	NewNotifier,
	NewLifecycle,
	ProvideHandler,
	wire.Bind(new(TokenVerifier), new(*infrastructure.Tokens)),
)
