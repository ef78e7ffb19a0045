package chat

import (
	"context"
	"encoding/json"
	"errors"

	"chatrelay/infrastructure"
	"chatrelay/internal/realtime"

	"github.com/google/uuid"
)

type directMessageEvent struct {
	Text     string    `json:"text"`
	ToUserID uuid.UUID `json:"toUserId"`
}

type groupMessageEvent struct {
	Text    string    `json:"text"`
	GroupID uuid.UUID `json:"groupId"`
}

type groupInfoEvent struct {
	GroupID uuid.UUID `json:"groupId"`
}

// Register attaches the messaging events to d.
func (r *Router) Register(d *realtime.Dispatcher) {
	d.Handle(realtime.EventSendDirectMessage, func(ctx context.Context, s *realtime.Session, data json.RawMessage) error {
		var ev directMessageEvent
		if err := realtime.Decode(data, &ev); err != nil {
			return err
		}
		_, err := r.SendDirect(ctx, s.Identity, ev.ToUserID, ev.Text)
		return err
	})

	d.Handle(realtime.EventSendGroupMessage, func(ctx context.Context, s *realtime.Session, data json.RawMessage) error {
		var ev groupMessageEvent
		if err := realtime.Decode(data, &ev); err != nil {
			return err
		}
		_, err := r.SendGroup(ctx, s.Identity, ev.GroupID, ev.Text)
		return err
	})

	d.Handle(realtime.EventRequestGroupInfo, func(ctx context.Context, s *realtime.Session, data json.RawMessage) error {
		var ev groupInfoEvent
		if err := realtime.Decode(data, &ev); err != nil {
			return err
		}
		info, err := r.GroupInfo(ctx, ev.GroupID)
		if errors.Is(err, infrastructure.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		s.Reply(realtime.Event{Type: realtime.EventGroupInfo, Data: *info})
		return nil
	})
}
