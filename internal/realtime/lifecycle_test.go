package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chatrelay/config"
	"chatrelay/infrastructure"
	"chatrelay/internal/presence"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"nhooyr.io/websocket"
)

type harness struct {
	tokens    *infrastructure.Tokens
	dir       *presence.Memory
	hub       *Hub
	lifecycle *Lifecycle
}

func newHarness(t *testing.T) *harness {
	log := zaptest.NewLogger(t)
	h := &harness{
		tokens: infrastructure.NewTokens("secret", time.Hour),
		dir:    presence.NewMemory(),
	}
	h.hub = NewHub(config.WSConfig{SendBuffer: 16}, nil, log)
	h.lifecycle = NewLifecycle(h.tokens, h.dir, h.hub, NewDispatcher(log), log)
	return h
}

func (h *harness) connect(t *testing.T, userID uuid.UUID) (*Session, *fakeConn) {
	t.Helper()
	token, err := h.tokens.Issue(infrastructure.Identity{UserID: userID, Username: "u-" + userID.String()[:4]})
	require.NoError(t, err)

	conn := newFakeConn()
	s, err := h.lifecycle.Connect(context.Background(), token, conn)
	require.NoError(t, err)
	return s, conn
}

func TestConnectAnnouncesOnlineToOthersOnce(t *testing.T) {
	h := newHarness(t)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	_, connA := h.connect(t, a)
	_, connB := h.connect(t, b)
	assert.Equal(t, EventUserOnline, connA.next(t).Type) // b joined

	_, connC := h.connect(t, c)

	for _, conn := range []*fakeConn{connA, connB} {
		ev := conn.next(t)
		assert.Equal(t, EventUserOnline, ev.Type)
		assert.Equal(t, UserStatus{UserID: c}, ev.Data)
		conn.quiet(t)
	}
	connC.quiet(t)

	connID, ok := h.dir.Get(context.Background(), c)
	require.True(t, ok)
	assert.NotEmpty(t, connID)
}

func TestDisconnectAnnouncesOffline(t *testing.T) {
	h := newHarness(t)
	a, b := uuid.New(), uuid.New()

	_, connA := h.connect(t, a)
	sessionB, _ := h.connect(t, b)
	connA.next(t)

	h.lifecycle.Disconnect(context.Background(), sessionB)

	ev := connA.next(t)
	assert.Equal(t, EventUserOffline, ev.Type)
	assert.Equal(t, UserStatus{UserID: b}, ev.Data)
	connA.quiet(t)
	assert.False(t, h.dir.Has(context.Background(), b))
	assert.Equal(t, 1, h.hub.Len())
}

func TestStaleDisconnectKeepsNewerConnection(t *testing.T) {
	h := newHarness(t)
	watcher, user := uuid.New(), uuid.New()

	_, connW := h.connect(t, watcher)
	old, _ := h.connect(t, user)
	connW.next(t)
	newer, _ := h.connect(t, user)
	connW.next(t)

	h.lifecycle.Disconnect(context.Background(), old)

	connW.quiet(t)
	connID, ok := h.dir.Get(context.Background(), user)
	require.True(t, ok)
	assert.Equal(t, newer.ConnID, connID)
}

func TestConnectRejectsInvalidToken(t *testing.T) {
	h := newHarness(t)
	_, connA := h.connect(t, uuid.New())

	conn := newFakeConn()
	_, err := h.lifecycle.Connect(context.Background(), "not-a-token", conn)
	require.ErrorIs(t, err, infrastructure.ErrUnauthenticated)

	closed, code := conn.closedWith()
	assert.True(t, closed)
	assert.Equal(t, websocket.StatusPolicyViolation, code)
	assert.Equal(t, 1, h.hub.Len())
	connA.quiet(t)
}

func TestServeDispatchesInOrder(t *testing.T) {
	h := newHarness(t)
	seen := make(chan string, 8)
	h.lifecycle.dispatcher.Handle("ping", func(_ context.Context, _ *Session, data json.RawMessage) error {
		var p struct{ N string }
		if err := Decode(data, &p); err != nil {
			return err
		}
		seen <- p.N
		return nil
	})

	session, conn := h.connect(t, uuid.New())
	conn.reads <- []byte(`{"type":"ping","data":{"N":"1"}}`)
	conn.reads <- []byte(`{"type":"ping","data":{"N":"2"}}`)
	conn.reads <- []byte(`not json`)
	conn.reads <- []byte(`{"type":"unknown"}`)
	conn.reads <- []byte(`{"type":"ping","data":{"N":"3"}}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.lifecycle.Serve(ctx, session) }()

	var got []string
	for i := 0; i < 3; i++ {
		select {
		case n := <-seen:
			got = append(got, n)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for dispatch")
		}
	}
	assert.Equal(t, []string{"1", "2", "3"}, got)
}

func TestDispatchReportsFailureToSender(t *testing.T) {
	h := newHarness(t)
	h.lifecycle.dispatcher.Handle("save", func(context.Context, *Session, json.RawMessage) error {
		return infrastructure.Storage("insert message", assert.AnError)
	})

	session, conn := h.connect(t, uuid.New())
	h.lifecycle.dispatcher.Dispatch(context.Background(), session, []byte(`{"type":"save","data":{}}`))

	ev := conn.next(t)
	assert.Equal(t, EventError, ev.Type)
	assert.Equal(t, Failure{Event: "save", Message: "Internal"}, ev.Data)
}

func TestWaitReturnsOnceSessionsDisconnect(t *testing.T) {
	h := newHarness(t)
	s1, _ := h.connect(t, uuid.New())
	s2, _ := h.connect(t, uuid.New())

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.lifecycle.Wait(short), context.DeadlineExceeded)

	h.lifecycle.Disconnect(context.Background(), s1)
	go h.lifecycle.Disconnect(context.Background(), s2)

	ctx, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	require.NoError(t, h.lifecycle.Wait(ctx))
	assert.False(t, h.dir.Has(context.Background(), s2.Identity.UserID))
}
