package chat

//go:generate mockgen -destination=mocks/mocks.go -package=mocks chatrelay/internal/chat Messages,Pusher

import (
	"context"
	"time"

	"chatrelay/internal/conversation"
	"chatrelay/internal/message"
	"chatrelay/internal/realtime"
	"chatrelay/internal/user"

	"github.com/google/uuid"
)

type Conversations interface {
	FindOrCreateDirect(ctx context.Context, a, b uuid.UUID) (*conversation.Conversation, error)
	FindDirect(ctx context.Context, a, b uuid.UUID) (*conversation.Conversation, error)
	Group(ctx context.Context, groupID uuid.UUID) (*conversation.Conversation, error)
	FindGroup(ctx context.Context, groupID, participant uuid.UUID) (*conversation.Conversation, error)
	DirectFor(ctx context.Context, userID uuid.UUID) ([]*conversation.Conversation, error)
	GroupsFor(ctx context.Context, userID uuid.UUID) ([]*conversation.Conversation, error)
	CreateGroup(ctx context.Context, group *conversation.Conversation) error
	AddParticipant(ctx context.Context, groupID, actorID, userID uuid.UUID) (*conversation.Conversation, error)
	RemoveParticipant(ctx context.Context, groupID, userID uuid.UUID) (*conversation.Leave, error)
}

type Messages interface {
	Append(ctx context.Context, conversationID, senderID uuid.UUID, content string, kind message.Kind) (*message.Message, error)
	History(ctx context.Context, conversationID uuid.UUID) ([]*message.Message, error)
	LastOf(ctx context.Context, conversationID uuid.UUID, pointer *uuid.UUID) (*message.Message, error)
}

type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	ListExcept(ctx context.Context, id uuid.UUID) ([]*user.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error)
}

type Pusher interface {
	PushToUser(ctx context.Context, userID uuid.UUID, ev realtime.Event) bool
	Broadcast(ctx context.Context, ev realtime.Event)
	IsOnline(ctx context.Context, userID uuid.UUID) bool
}

// now stamps new groups.
var now = func() time.Time { return time.Now().UTC() }
