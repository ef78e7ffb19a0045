package signaling

import (
	"chatrelay/internal/realtime"

	"github.com/google/wire"
)

var Set = wire.NewSet(
	NewRelay,
	wire.Bind(new(Pusher), new(*realtime.Notifier)),
)
