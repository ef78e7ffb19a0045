// Package messagetest provides an in-memory message storage.
package messagetest

import (
	"context"
	"errors"
	"sync"

	"chatrelay/internal/message"

	"github.com/google/uuid"
)

var ErrInjected = errors.New("injected storage failure")

type Memory struct {
	mu       sync.Mutex
	messages []*message.Message

	// FailSave makes SaveMessage fail.
	FailSave bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveMessage(_ context.Context, msg *message.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave {
		return ErrInjected
	}
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *Memory) MessagesByConversation(_ context.Context, conversationID uuid.UUID) ([]*message.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*message.Message, 0)
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Memory) MessageByID(_ context.Context, id uuid.UUID) (*message.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, message.ErrMessageNotFound
}

func (m *Memory) LatestMessage(_ context.Context, conversationID uuid.UUID) (*message.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].ConversationID == conversationID {
			cp := *m.messages[i]
			return &cp, nil
		}
	}
	return nil, message.ErrMessageNotFound
}

// Len reports how many messages are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

var (
	_ message.Saver    = (*Memory)(nil)
	_ message.Provider = (*Memory)(nil)
)
