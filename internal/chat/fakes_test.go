package chat_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"chatrelay/infrastructure"
	"chatrelay/internal/chat"
	"chatrelay/internal/conversation"
	"chatrelay/internal/conversation/conversationtest"
	"chatrelay/internal/message"
	"chatrelay/internal/message/messagetest"
	"chatrelay/internal/realtime"
	"chatrelay/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeUsers struct {
	byID  map[uuid.UUID]*user.User
	order []uuid.UUID
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]*user.User{}}
}

func (f *fakeUsers) add(name string) infrastructure.Identity {
	u := &user.User{ID: uuid.New(), Username: name, Email: name + "@example.com", Picture: "https://img/" + name}
	f.byID[u.ID] = u
	f.order = append(f.order, u.ID)
	return infrastructure.Identity{UserID: u.ID, Username: u.Username, Email: u.Email, Picture: u.Picture}
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, infrastructure.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUsers) ListExcept(_ context.Context, id uuid.UUID) ([]*user.User, error) {
	out := make([]*user.User, 0, len(f.order))
	for _, uid := range f.order {
		if uid != id {
			out = append(out, f.byID[uid])
		}
	}
	return out, nil
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*user.User, error) {
	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type push struct {
	to uuid.UUID
	ev realtime.Event
}

type fakePusher struct {
	mu     sync.Mutex
	online map[uuid.UUID]bool
	pushes []push
}

func newFakePusher() *fakePusher {
	return &fakePusher{online: map[uuid.UUID]bool{}}
}

func (p *fakePusher) setOnline(ids ...uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.online[id] = true
	}
}

func (p *fakePusher) PushToUser(_ context.Context, to uuid.UUID, ev realtime.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.online[to] {
		return false
	}
	p.pushes = append(p.pushes, push{to: to, ev: ev})
	return true
}

func (p *fakePusher) Broadcast(context.Context, realtime.Event) {}

func (p *fakePusher) IsOnline(_ context.Context, id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[id]
}

// received lists the event types pushed to id, oldest first.
func (p *fakePusher) received(id uuid.UUID) []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []realtime.Event
	for _, pu := range p.pushes {
		if pu.to == id {
			out = append(out, pu.ev)
		}
	}
	return out
}

type fixture struct {
	convs    *conversationtest.Memory
	resolver *conversation.Resolver
	msgs     *messagetest.Memory
	store    *message.Store
	users    *fakeUsers
	pusher   *fakePusher
	router   *chat.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		convs:  conversationtest.NewMemory(),
		msgs:   messagetest.NewMemory(),
		users:  newFakeUsers(),
		pusher: newFakePusher(),
	}
	f.resolver = conversation.NewResolver(f.convs, zap.NewNop())
	f.store = message.NewStore(f.msgs, f.msgs, f.convs, nil, zap.NewNop())
	f.router = chat.NewRouter(f.resolver, f.store, f.users, f.pusher, zap.NewNop())
	return f
}
