package realtime

import (
	"context"

	"chatrelay/internal/presence"

	"github.com/google/uuid"
)

// Notifier pushes events to users through the presence table.
type Notifier struct {
	dir presence.Directory
	hub *Hub
}

func NewNotifier(dir presence.Directory, hub *Hub) *Notifier {
	return &Notifier{dir: dir, hub: hub}
}

// PushToUser delivers ev to the user's current connection. It returns false
// when the user is offline or the push could not be queued.
func (n *Notifier) PushToUser(ctx context.Context, userID uuid.UUID, ev Event) bool {
	connID, ok := n.dir.Get(ctx, userID)
	if !ok {
		return false
	}
	return n.hub.Push(connID, ev)
}

// Broadcast delivers ev to every live connection.
func (n *Notifier) Broadcast(_ context.Context, ev Event) {
	n.hub.Broadcast(ev, uuid.Nil)
}

func (n *Notifier) IsOnline(ctx context.Context, userID uuid.UUID) bool {
	return n.dir.Has(ctx, userID)
}
