//go:build wireinject
// +build wireinject

package di

import (
	"chatrelay/config"
	"chatrelay/internal/api"
	"chatrelay/internal/auth"
	"chatrelay/internal/chat"
	"chatrelay/internal/conversation"
	"chatrelay/internal/database"
	"chatrelay/internal/message"
	"chatrelay/internal/metrics"
	"chatrelay/internal/ops"
	"chatrelay/internal/presence"
	"chatrelay/internal/realtime"
	"chatrelay/internal/signaling"
	"chatrelay/internal/user"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var AppSet = wire.NewSet(
	ProvideRegistry,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
	wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
	metrics.New,
	database.Set,
	presence.ProvideDirectory,
	user.Set,
	conversation.Set,
	message.Set,
	realtime.Set,
	chat.Set,
	signaling.Set,
	auth.Set,
	api.Set,
	ProvideDispatcher,
	ProvideChecks,
	ops.NewServer,
	NewApp,
)

func InitializeApp(cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
