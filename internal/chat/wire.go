package chat

import (
	"chatrelay/internal/conversation"
	"chatrelay/internal/message"
	"chatrelay/internal/realtime"
	"chatrelay/internal/user"

	"github.com/google/wire"
)

var Set = wire.NewSet(
	NewRouter,
	NewJSONHandler,
	wire.Bind(new(Conversations), new(*conversation.Resolver)),
	wire.Bind(new(Messages), new(*message.Store)),
	wire.Bind(new(Users), new(user.Repository)),
	wire.Bind(new(Pusher), new(*realtime.Notifier)),
)
