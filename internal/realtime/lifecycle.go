package realtime

import (
	"context"
	"fmt"
	"sync"

	"chatrelay/infrastructure"
	"chatrelay/internal/presence"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// TokenVerifier decodes an identity token.
type TokenVerifier interface {
	Verify(token string) (*infrastructure.Identity, error)
}

// Session is an authenticated connection.
type Session struct {
	ConnID   string
	Identity infrastructure.Identity

	client *Client
	hub    *Hub
}

// Reply pushes ev to this connection only.
func (s *Session) Reply(ev Event) bool {
	return s.hub.Push(s.ConnID, ev)
}

// Lifecycle registers connections in the presence table and announces
// presence transitions.
type Lifecycle struct {
	tokens     TokenVerifier
	dir        presence.Directory
	hub        *Hub
	dispatcher *Dispatcher
	log        *zap.Logger

	active sync.WaitGroup
}

func NewLifecycle(tokens TokenVerifier, dir presence.Directory, hub *Hub, dispatcher *Dispatcher, log *zap.Logger) *Lifecycle {
	return &Lifecycle{
		tokens:     tokens,
		dir:        dir,
		hub:        hub,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Connect authenticates conn. A bad token closes the connection and returns
// an error wrapping ErrUnauthenticated. Otherwise the connection becomes the
// user's presence entry, replacing any earlier one, and every other user is
// told the user is online.
func (l *Lifecycle) Connect(ctx context.Context, token string, conn Conn) (*Session, error) {
	identity, err := l.tokens.Verify(token)
	if err != nil {
		_ = conn.Close(websocket.StatusPolicyViolation, "unauthorized")
		return nil, fmt.Errorf("%v: %w", err, infrastructure.ErrUnauthenticated)
	}

	client := l.hub.Register(identity.UserID, conn)
	if err := l.dir.Set(ctx, identity.UserID, client.ID); err != nil {
		l.hub.Unregister(client)
		_ = conn.Close(websocket.StatusInternalError, "presence unavailable")
		return nil, err
	}

	l.active.Add(1)
	l.hub.Broadcast(Event{Type: EventUserOnline, Data: UserStatus{UserID: identity.UserID}}, identity.UserID)
	l.log.Info("user online",
		zap.String("userId", identity.UserID.String()),
		zap.String("connId", client.ID),
	)

	return &Session{ConnID: client.ID, Identity: *identity, client: client, hub: l.hub}, nil
}

// Disconnect releases the session. The user is announced offline only when
// this connection was still their presence entry; a superseded connection
// closing leaves the newer one untouched.
func (l *Lifecycle) Disconnect(ctx context.Context, s *Session) {
	defer l.active.Done()
	l.hub.Unregister(s.client)

	if !l.dir.Remove(ctx, s.Identity.UserID, s.ConnID) {
		l.log.Debug("stale disconnect ignored",
			zap.String("userId", s.Identity.UserID.String()),
			zap.String("connId", s.ConnID),
		)
		return
	}

	l.hub.Broadcast(Event{Type: EventUserOffline, Data: UserStatus{UserID: s.Identity.UserID}}, s.Identity.UserID)
	l.log.Info("user offline",
		zap.String("userId", s.Identity.UserID.String()),
		zap.String("connId", s.ConnID),
	)
}

// Serve reads frames from the session's connection in order until it fails
// or ctx ends, dispatching each before reading the next.
func (l *Lifecycle) Serve(ctx context.Context, s *Session) error {
	for {
		raw, err := s.client.conn.Read(ctx)
		if err != nil {
			return err
		}
		l.dispatcher.Dispatch(ctx, s, raw)
	}
}

// Wait blocks until every connected session has been disconnected or ctx
// ends.
func (l *Lifecycle) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
