package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

type fakeConn struct {
	reads  chan []byte
	writes chan Event
	block  chan struct{}

	mu        sync.Mutex
	closed    bool
	closeCode websocket.StatusCode
	done      chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:  make(chan []byte, 16),
		writes: make(chan Event, 64),
		done:   make(chan struct{}),
	}
}

func (f *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case raw := <-f.reads:
		return raw, nil
	case <-f.done:
		return nil, errors.New("closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeConn) Write(ctx context.Context, ev Event) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.writes <- ev
	return nil
}

func (f *fakeConn) Ping(context.Context) error { return nil }

func (f *fakeConn) Close(code websocket.StatusCode, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.closeCode = code
		close(f.done)
	}
	return nil
}

func (f *fakeConn) closedWith() (bool, websocket.StatusCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed, f.closeCode
}

// next waits for the next written event.
func (f *fakeConn) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-f.writes:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

// quiet asserts nothing is written for a short while.
func (f *fakeConn) quiet(t *testing.T) {
	t.Helper()
	select {
	case ev := <-f.writes:
		t.Fatalf("unexpected event %s: %+v", ev.Type, ev.Data)
	case <-time.After(50 * time.Millisecond):
	}
}
