package di

import (
	"context"
	"time"

	"chatrelay/config"
	"chatrelay/internal/api"
	"chatrelay/internal/chat"
	"chatrelay/internal/database"
	"chatrelay/internal/ops"
	"chatrelay/internal/presence"
	"chatrelay/internal/realtime"
	"chatrelay/internal/signaling"
	"chatrelay/internal/user/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// App owns the listeners and the state that must be drained on shutdown.
type App struct {
	api   *api.Server
	ops   *ops.Server
	hub   *realtime.Hub
	conns *realtime.Lifecycle
	db    *database.Database
	grace time.Duration
	log   *zap.Logger
}

func NewApp(cfg *config.Config, apiServer *api.Server, opsServer *ops.Server, hub *realtime.Hub, conns *realtime.Lifecycle, db *database.Database, log *zap.Logger) *App {
	return &App{
		api:   apiServer,
		ops:   opsServer,
		hub:   hub,
		conns: conns,
		db:    db,
		grace: cfg.ShutdownGracePeriod,
		log:   log,
	}
}

func (a *App) Migrate(ctx context.Context) error {
	return a.db.Migrate(ctx, &storage.User{})
}

// Run serves until ctx is done or a listener fails, then shuts down both
// listeners and closes every live connection.
func (a *App) Run(ctx context.Context) error {
	errc := make(chan error, 2)
	go func() { errc <- a.api.Run() }()
	go func() { errc <- a.ops.Run() }()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
		if runErr != nil {
			a.log.Error("listener stopped", zap.Error(runErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()

	a.log.Info("shutting down", zap.Int("connections", a.hub.Len()))
	a.hub.CloseAll("server shutting down")
	if err := a.api.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", zap.Error(err))
	}
	if err := a.ops.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("ops shutdown", zap.Error(err))
	}
	// Presence entries are released by each session's disconnect, which must
	// finish before the presence store is closed.
	if err := a.conns.Wait(shutdownCtx); err != nil {
		a.log.Warn("sessions still open at shutdown", zap.Error(err))
	}
	return runErr
}

func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideDispatcher registers every inbound websocket event.
func ProvideDispatcher(router *chat.Router, relay *signaling.Relay, log *zap.Logger) *realtime.Dispatcher {
	d := realtime.NewDispatcher(log)
	router.Register(d)
	relay.Register(d)
	return d
}

func ProvideChecks(db *database.Database, dir presence.Directory) []ops.Check {
	checks := []ops.Check{{Name: "database", Pinger: db}}
	if p, ok := dir.(ops.Pinger); ok {
		checks = append(checks, ops.Check{Name: "presence", Pinger: p})
	}
	return checks
}
