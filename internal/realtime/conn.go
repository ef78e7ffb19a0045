package realtime

import (
	"context"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Conn is the transport of a single live connection.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, ev Event) error
	Ping(ctx context.Context) error
	Close(code websocket.StatusCode, reason string) error
}

type wsConn struct {
	c *websocket.Conn
}

// NewWebsocketConn adapts an accepted websocket to Conn.
func NewWebsocketConn(c *websocket.Conn) Conn {
	return &wsConn{c: c}
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.c.Read(ctx)
	return data, err
}

func (w *wsConn) Write(ctx context.Context, ev Event) error {
	return wsjson.Write(ctx, w.c, ev)
}

func (w *wsConn) Ping(ctx context.Context) error {
	return w.c.Ping(ctx)
}

func (w *wsConn) Close(code websocket.StatusCode, reason string) error {
	return w.c.Close(code, reason)
}
