package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"chatrelay/infrastructure"

	"go.uber.org/zap"
)

// HandlerFunc handles one inbound event of a session.
type HandlerFunc func(ctx context.Context, s *Session, data json.RawMessage) error

// Dispatcher routes inbound frames to the handler registered for their type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	log      *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc), log: log}
}

func (d *Dispatcher) Handle(eventType string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.handlers[eventType]; dup {
		panic(fmt.Sprintf("realtime: handler for %q registered twice", eventType))
	}
	d.handlers[eventType] = h
}

// Dispatch decodes a raw frame and runs its handler. Errors that leave the
// sender's request undone are reported back on the same connection; the read
// loop always continues.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.log.Debug("malformed frame", zap.String("connId", s.ConnID), zap.Error(err))
		return
	}

	d.mu.RLock()
	h, ok := d.handlers[env.Type]
	d.mu.RUnlock()
	if !ok {
		d.log.Debug("unhandled event", zap.String("connId", s.ConnID), zap.String("event", env.Type))
		return
	}

	if err := h(ctx, s, env.Data); err != nil {
		d.log.Warn("event failed",
			zap.String("event", env.Type),
			zap.String("userId", s.Identity.UserID.String()),
			zap.Error(err),
		)
		s.Reply(Event{Type: EventError, Data: Failure{
			Event:   env.Type,
			Message: infrastructure.Code(err).String(),
		}})
	}
}

// Decode unmarshals an event payload, mapping failures to ErrInvalidInput.
func Decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("empty payload: %w", infrastructure.ErrInvalidInput)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%v: %w", err, infrastructure.ErrInvalidInput)
	}
	return nil
}
