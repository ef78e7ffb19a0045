// Package conversationtest provides an in-memory conversation.Repository.
package conversationtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"chatrelay/infrastructure"
	"chatrelay/internal/conversation"

	"github.com/google/uuid"
)

type Memory struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*conversation.Conversation
	direct map[string]uuid.UUID

	// FailSetLastMessage makes SetLastMessage return a storage error.
	FailSetLastMessage bool
}

func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[uuid.UUID]*conversation.Conversation),
		direct: make(map[string]uuid.UUID),
	}
}

func clone(c *conversation.Conversation) *conversation.Conversation {
	cp := *c
	cp.Participants = append([]uuid.UUID(nil), c.Participants...)
	return &cp
}

func (m *Memory) CreateDirect(_ context.Context, a, b uuid.UUID) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := conversation.DirectKey(a, b)
	if id, ok := m.direct[key]; ok {
		return clone(m.byID[id]), nil
	}
	now := time.Now().UTC()
	c := &conversation.Conversation{ID: uuid.New(), Participants: []uuid.UUID{a, b}, CreatedAt: now, UpdatedAt: now}
	m.byID[c.ID] = c
	m.direct[key] = c.ID
	return clone(c), nil
}

func (m *Memory) GetDirect(_ context.Context, a, b uuid.UUID) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.direct[conversation.DirectKey(a, b)]
	if !ok {
		return nil, fmt.Errorf("direct conversation: %w", infrastructure.ErrNotFound)
	}
	return clone(m.byID[id]), nil
}

func (m *Memory) GetByID(_ context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, infrastructure.ErrNotFound)
	}
	return clone(c), nil
}

func (m *Memory) ListFor(_ context.Context, userID uuid.UUID, group bool) ([]*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*conversation.Conversation
	for _, c := range m.byID {
		if c.IsGroup == group && c.HasParticipant(userID) {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) CreateGroup(_ context.Context, group *conversation.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[group.ID] = clone(group)
	return nil
}

func (m *Memory) AddParticipant(_ context.Context, groupID, actorID, userID uuid.UUID) (*conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, err := m.group(groupID)
	if err != nil {
		return nil, err
	}
	if err := group.AddMember(actorID, userID); err != nil {
		return nil, err
	}
	return clone(group), nil
}

func (m *Memory) RemoveParticipant(_ context.Context, groupID, userID uuid.UUID) (*conversation.Leave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, err := m.group(groupID)
	if err != nil {
		return nil, err
	}
	leave, err := group.RemoveMember(userID)
	if err != nil {
		return nil, err
	}
	if leave.Deleted {
		delete(m.byID, groupID)
		return leave, nil
	}
	leave.Group = clone(group)
	return leave, nil
}

func (m *Memory) SetLastMessage(_ context.Context, id, messageID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSetLastMessage {
		return infrastructure.Storage("set last message", fmt.Errorf("injected failure"))
	}
	c, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("conversation %s: %w", id, infrastructure.ErrNotFound)
	}
	c.LastMessageID = &messageID
	c.UpdatedAt = at
	return nil
}

// Count reports how many conversations are stored.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func (m *Memory) group(id uuid.UUID) (*conversation.Conversation, error) {
	c, ok := m.byID[id]
	if !ok || !c.IsGroup {
		return nil, fmt.Errorf("group %s: %w", id, infrastructure.ErrNotFound)
	}
	return c, nil
}

var _ conversation.Repository = (*Memory)(nil)
