package chat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"chatrelay/infrastructure"
	"chatrelay/internal/message"
	"chatrelay/internal/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Delivery reports what happened to a send. Dropped is set when the send was
// ignored without storing anything; Pushed lists recipients whose live
// connection was handed the message.
type Delivery struct {
	Message *message.Message
	Pushed  []uuid.UUID
	Dropped bool
}

type Router struct {
	conversations Conversations
	messages      Messages
	users         Users
	pusher        Pusher
	log           *zap.Logger
}

func NewRouter(conversations Conversations, messages Messages, users Users, pusher Pusher, log *zap.Logger) *Router {
	return &Router{
		conversations: conversations,
		messages:      messages,
		users:         users,
		pusher:        pusher,
		log:           log,
	}
}

// SendDirect stores a text message in the pair's thread and pushes it to the
// recipient if they are online.
func (r *Router) SendDirect(ctx context.Context, from infrastructure.Identity, to uuid.UUID, text string) (*Delivery, error) {
	return r.sendDirect(ctx, from, to, text, message.KindText)
}

// SendAttachment is SendDirect for an already hosted image or file URL.
func (r *Router) SendAttachment(ctx context.Context, from infrastructure.Identity, to uuid.UUID, rawURL string, kind message.Kind) (*Delivery, error) {
	if kind != message.KindImage && kind != message.KindFile {
		return nil, fmt.Errorf("attachment kind %q: %w", kind, infrastructure.ErrInvalidInput)
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("attachment url %q: %w", rawURL, infrastructure.ErrInvalidInput)
	}
	return r.sendDirect(ctx, from, to, u.String(), kind)
}

func (r *Router) sendDirect(ctx context.Context, from infrastructure.Identity, to uuid.UUID, content string, kind message.Kind) (*Delivery, error) {
	if to == uuid.Nil {
		return nil, fmt.Errorf("recipient is required: %w", infrastructure.ErrInvalidInput)
	}

	c, err := r.conversations.FindOrCreateDirect(ctx, from.UserID, to)
	if err != nil {
		return nil, err
	}
	m, err := r.messages.Append(ctx, c.ID, from.UserID, content, kind)
	if err != nil {
		return nil, err
	}

	delivery := &Delivery{Message: m}
	ev := realtime.Event{Type: realtime.EventMessageReceived, Data: realtime.MessageReceived{
		Text: m.Content,
		Kind: string(m.Kind),
		From: senderOf(from),
	}}
	if r.pusher.PushToUser(ctx, to, ev) {
		delivery.Pushed = append(delivery.Pushed, to)
	}
	return delivery, nil
}

// SendGroup stores a text message in the group and pushes it to every other
// member who is online. A sender outside the group, or a group that does not
// exist, yields a dropped delivery and no error.
func (r *Router) SendGroup(ctx context.Context, from infrastructure.Identity, groupID uuid.UUID, text string) (*Delivery, error) {
	group, err := r.conversations.FindGroup(ctx, groupID, from.UserID)
	if errors.Is(err, infrastructure.ErrForbidden) || errors.Is(err, infrastructure.ErrNotFound) {
		r.log.Debug("group message dropped",
			zap.String("groupId", groupID.String()),
			zap.String("userId", from.UserID.String()),
			zap.Error(err),
		)
		return &Delivery{Dropped: true}, nil
	}
	if err != nil {
		return nil, err
	}

	m, err := r.messages.Append(ctx, group.ID, from.UserID, text, message.KindText)
	if err != nil {
		return nil, err
	}

	delivery := &Delivery{Message: m}
	ev := realtime.Event{Type: realtime.EventGroupMessageReceived, Data: realtime.GroupMessageReceived{
		Text:    m.Content,
		GroupID: group.ID,
		From:    senderOf(from),
		Kind:    string(m.Kind),
	}}
	for _, member := range group.Participants {
		if member == from.UserID {
			continue
		}
		if r.pusher.PushToUser(ctx, member, ev) {
			delivery.Pushed = append(delivery.Pushed, member)
		}
	}
	return delivery, nil
}

// notify pushes ev to each user that is online, skipping except.
func (r *Router) notify(ctx context.Context, users []uuid.UUID, except uuid.UUID, ev realtime.Event) {
	for _, id := range users {
		if id == except {
			continue
		}
		r.pusher.PushToUser(ctx, id, ev)
	}
}

func senderOf(id infrastructure.Identity) realtime.Sender {
	return realtime.Sender{ID: id.UserID, Name: id.Username, Picture: id.Picture}
}
