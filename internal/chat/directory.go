package chat

import (
	"context"
	"errors"
	"sort"
	"time"

	"chatrelay/infrastructure"
	"chatrelay/internal/conversation"
	"chatrelay/internal/message"

	"github.com/google/uuid"
)

// DirectoryEntry is one row of the user listing.
type DirectoryEntry struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Picture              string     `json:"picture"`
	IsOnline             bool       `json:"isOnline"`
	LastMessage          string     `json:"lastMessage"`
	LastMessageTimestamp *time.Time `json:"lastMessageTimestamp"`
}

// Author is the public profile attached to group history.
type Author struct {
	ID       uuid.UUID `json:"_id"`
	Username string    `json:"username"`
	Picture  string    `json:"picture"`
}

type GroupMessage struct {
	*message.Message
	Sender Author `json:"sender"`
}

// ListReachableUsers lists every user except the requester with presence and
// the preview of their direct thread. Most recent conversations come first;
// users never talked to come last.
func (r *Router) ListReachableUsers(ctx context.Context, requester uuid.UUID) ([]*DirectoryEntry, error) {
	users, err := r.users.ListExcept(ctx, requester)
	if err != nil {
		return nil, err
	}
	directs, err := r.conversations.DirectFor(ctx, requester)
	if err != nil {
		return nil, err
	}

	byPeer := make(map[uuid.UUID]*conversation.Conversation, len(directs))
	for _, c := range directs {
		for _, id := range c.Participants {
			if id != requester {
				byPeer[id] = c
			}
		}
	}

	entries := make([]*DirectoryEntry, 0, len(users))
	for _, u := range users {
		entry := &DirectoryEntry{
			ID:       u.ID,
			Name:     u.Username,
			Email:    u.Email,
			Picture:  u.Picture,
			IsOnline: r.pusher.IsOnline(ctx, u.ID),
		}
		if c, ok := byPeer[u.ID]; ok {
			last, err := r.messages.LastOf(ctx, c.ID, c.LastMessageID)
			if err != nil {
				return nil, err
			}
			if last != nil {
				at := last.CreatedAt
				entry.LastMessage = last.Kind.Preview(last.Content)
				entry.LastMessageTimestamp = &at
			}
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].LastMessageTimestamp, entries[j].LastMessageTimestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	return entries, nil
}

// DirectHistory returns the thread with other, or an empty list when the two
// never talked.
func (r *Router) DirectHistory(ctx context.Context, requester, other uuid.UUID) ([]*message.Message, error) {
	c, err := r.conversations.FindDirect(ctx, requester, other)
	if errors.Is(err, infrastructure.ErrNotFound) {
		return []*message.Message{}, nil
	}
	if err != nil {
		return nil, err
	}
	return r.messages.History(ctx, c.ID)
}

// GroupHistory returns a group's messages with their authors. Only members may
// read it.
func (r *Router) GroupHistory(ctx context.Context, requester, groupID uuid.UUID) ([]*GroupMessage, error) {
	group, err := r.conversations.FindGroup(ctx, groupID, requester)
	if err != nil {
		return nil, err
	}
	messages, err := r.messages.History(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	senders := make([]uuid.UUID, 0)
	seen := map[uuid.UUID]bool{}
	for _, m := range messages {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senders = append(senders, m.SenderID)
		}
	}
	users, err := r.users.GetByIDs(ctx, senders)
	if err != nil {
		return nil, err
	}
	authors := make(map[uuid.UUID]Author, len(users))
	for _, u := range users {
		authors[u.ID] = Author{ID: u.ID, Username: u.Username, Picture: u.Picture}
	}

	out := make([]*GroupMessage, len(messages))
	for i, m := range messages {
		author, ok := authors[m.SenderID]
		if !ok {
			author = Author{ID: m.SenderID}
		}
		out[i] = &GroupMessage{Message: m, Sender: author}
	}
	return out, nil
}
