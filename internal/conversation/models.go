package conversation

import (
	"fmt"
	"time"

	"chatrelay/infrastructure"

	"github.com/google/uuid"
)

type Conversation struct {
	ID            uuid.UUID   `json:"_id"`
	Participants  []uuid.UUID `json:"participants"`
	IsGroup       bool        `json:"isGroupChat"`
	GroupName     string      `json:"groupName,omitempty"`
	GroupPicture  string      `json:"groupPicture,omitempty"`
	GroupAdmin    *uuid.UUID  `json:"groupAdmin,omitempty"`
	LastMessageID *uuid.UUID  `json:"lastMessage,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) IsAdmin(userID uuid.UUID) bool {
	return c.GroupAdmin != nil && *c.GroupAdmin == userID
}

// Leave is the outcome of removing a member from a group. Group is nil when
// the last member left and the group was deleted.
type Leave struct {
	Original []uuid.UUID
	Group    *Conversation
	Deleted  bool
}

// AddMember appends userID on behalf of actorID, who must be a member.
func (c *Conversation) AddMember(actorID, userID uuid.UUID) error {
	if !c.HasParticipant(actorID) {
		return fmt.Errorf("user %s is not in group %s: %w", actorID, c.ID, infrastructure.ErrForbidden)
	}
	if c.HasParticipant(userID) {
		return fmt.Errorf("user %s is already in group %s: %w", userID, c.ID, infrastructure.ErrConflict)
	}
	c.Participants = append(c.Participants, userID)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveMember drops userID from the group. A departing admin hands the role
// to the first remaining member. When nobody remains the returned Leave is
// marked Deleted.
func (c *Conversation) RemoveMember(userID uuid.UUID) (*Leave, error) {
	if !c.HasParticipant(userID) {
		return nil, fmt.Errorf("user %s is not in group %s: %w", userID, c.ID, infrastructure.ErrForbidden)
	}

	leave := &Leave{Original: append([]uuid.UUID(nil), c.Participants...)}
	remaining := make([]uuid.UUID, 0, len(c.Participants)-1)
	for _, id := range c.Participants {
		if id != userID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		leave.Deleted = true
		return leave, nil
	}

	if c.IsAdmin(userID) || c.GroupAdmin == nil {
		admin := remaining[0]
		c.GroupAdmin = &admin
	}
	c.Participants = remaining
	c.UpdatedAt = time.Now().UTC()
	leave.Group = c
	return leave, nil
}

// DirectKey identifies the unordered pair of a direct thread.
func DirectKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}
