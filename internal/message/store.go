package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatrelay/infrastructure"
	"chatrelay/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LastMessageSetter moves a conversation's last-message pointer.
type LastMessageSetter interface {
	SetLastMessage(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) error
}

type Store struct {
	saver    Saver
	provider Provider
	pointer  LastMessageSetter
	metrics  *metrics.Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewStore(saver Saver, provider Provider, pointer LastMessageSetter, recorder *metrics.Recorder, log *zap.Logger) *Store {
	return &Store{
		saver:    saver,
		provider: provider,
		pointer:  pointer,
		metrics:  recorder,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Append persists the message and then moves the conversation's last-message
// pointer. Only the insert can fail the call: a failed pointer update is
// logged and the stored message is still returned.
func (s *Store) Append(ctx context.Context, conversationID, senderID uuid.UUID, content string, kind Kind) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("message content is empty: %w", infrastructure.ErrInvalidInput)
	}
	if kind == "" {
		kind = KindText
	}

	m := &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Kind:           kind,
		ReadBy:         []uuid.UUID{},
		CreatedAt:      s.now(),
	}

	err := s.timed(ctx, "insert_message", func() error {
		return s.saver.SaveMessage(ctx, m)
	})
	if err != nil {
		return nil, infrastructure.Storage("insert message", err)
	}
	s.metrics.Persisted(string(kind))

	err = s.timed(ctx, "set_last_message", func() error {
		return s.pointer.SetLastMessage(ctx, conversationID, m.ID, m.CreatedAt)
	})
	if err != nil {
		s.log.Warn("failed to update last message pointer",
			zap.String("conversationId", conversationID.String()),
			zap.String("messageId", m.ID.String()),
			zap.Error(err),
		)
	}
	return m, nil
}

// History returns the conversation's messages oldest first.
func (s *Store) History(ctx context.Context, conversationID uuid.UUID) ([]*Message, error) {
	var messages []*Message
	err := s.timed(ctx, "select_history", func() (err error) {
		messages, err = s.provider.MessagesByConversation(ctx, conversationID)
		return err
	})
	if err != nil {
		return nil, infrastructure.Storage("message history", err)
	}
	return messages, nil
}

// Latest returns the newest message of the conversation, or nil when it has
// none.
func (s *Store) Latest(ctx context.Context, conversationID uuid.UUID) (*Message, error) {
	m, err := s.provider.LatestMessage(ctx, conversationID)
	if errors.Is(err, ErrMessageNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, infrastructure.Storage("latest message", err)
	}
	return m, nil
}

// LastOf resolves the preview message of a conversation from its pointer,
// falling back to the newest stored message when the pointer is unset or
// dangling.
func (s *Store) LastOf(ctx context.Context, conversationID uuid.UUID, pointer *uuid.UUID) (*Message, error) {
	if pointer != nil {
		m, err := s.provider.MessageByID(ctx, *pointer)
		if err == nil && m.ConversationID == conversationID {
			return m, nil
		}
		if err != nil && !errors.Is(err, ErrMessageNotFound) {
			return nil, infrastructure.Storage("last message", err)
		}
	}
	return s.Latest(ctx, conversationID)
}

func (s *Store) timed(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := infrastructure.TimeOperation(ctx, s.log, op, fn)
	s.metrics.ObserveStorage(op, time.Since(start))
	return err
}
