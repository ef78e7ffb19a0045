package chat

import (
	"context"
	"fmt"
	"strings"

	"chatrelay/infrastructure"
	"chatrelay/internal/conversation"
	"chatrelay/internal/message"
	"chatrelay/internal/realtime"
	"chatrelay/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NewGroup struct {
	Name    string
	Picture string
	Members []uuid.UUID
}

// GroupView is a group with its last message resolved.
type GroupView struct {
	*conversation.Conversation
	LastMessage *message.Message `json:"lastMessage,omitempty"`
}

// CreateGroup makes admin the administrator of a new group with at least two
// other members. Members other than the admin are told about it.
func (r *Router) CreateGroup(ctx context.Context, admin infrastructure.Identity, in NewGroup) (*conversation.Conversation, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("group name is required: %w", infrastructure.ErrInvalidInput)
	}

	seen := map[uuid.UUID]bool{admin.UserID: true}
	participants := make([]uuid.UUID, 0, len(in.Members)+1)
	for _, id := range in.Members {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		participants = append(participants, id)
	}
	if len(participants) < 2 {
		return nil, fmt.Errorf("a group needs at least 2 other members: %w", infrastructure.ErrInvalidInput)
	}

	known, err := r.users.GetByIDs(ctx, participants)
	if err != nil {
		return nil, err
	}
	if len(known) != len(participants) {
		return nil, fmt.Errorf("unknown group member: %w", infrastructure.ErrInvalidInput)
	}

	adminID := admin.UserID
	createdAt := now()
	group := &conversation.Conversation{
		ID:           uuid.New(),
		Participants: append(participants, adminID),
		IsGroup:      true,
		GroupName:    name,
		GroupPicture: strings.TrimSpace(in.Picture),
		GroupAdmin:   &adminID,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := r.conversations.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	r.notify(ctx, group.Participants, adminID, realtime.Event{
		Type: realtime.EventGroupCreated,
		Data: realtime.GroupCreated{Group: group},
	})
	r.log.Info("group created",
		zap.String("groupId", group.ID.String()),
		zap.Int("members", len(group.Participants)),
	)
	return group, nil
}

// AddMember adds userID to the group on behalf of actor, who must be a
// member. Every member after the change is notified.
func (r *Router) AddMember(ctx context.Context, actor infrastructure.Identity, groupID, userID uuid.UUID) (*conversation.Conversation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user to add is required: %w", infrastructure.ErrInvalidInput)
	}
	if _, err := r.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	group, err := r.conversations.AddParticipant(ctx, groupID, actor.UserID, userID)
	if err != nil {
		return nil, err
	}

	r.notify(ctx, group.Participants, uuid.Nil, realtime.Event{
		Type: realtime.EventGroupUpdated,
		Data: realtime.GroupUpdated{GroupID: group.ID},
	})
	return group, nil
}

// Leave removes userID from the group. Everyone who was a member before the
// change, the leaver included, is notified.
func (r *Router) Leave(ctx context.Context, userID, groupID uuid.UUID) (*conversation.Leave, error) {
	leave, err := r.conversations.RemoveParticipant(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	r.notify(ctx, leave.Original, uuid.Nil, realtime.Event{
		Type: realtime.EventGroupUpdated,
		Data: realtime.GroupUpdated{GroupID: groupID},
	})
	if leave.Deleted {
		r.log.Info("group deleted", zap.String("groupId", groupID.String()))
	}
	return leave, nil
}

// GroupInfo answers request-group-info.
func (r *Router) GroupInfo(ctx context.Context, groupID uuid.UUID) (*realtime.GroupInfo, error) {
	group, err := r.conversations.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &realtime.GroupInfo{GroupID: group.ID, Members: group.Participants}, nil
}

// MyGroups lists the user's groups, most recently active first.
func (r *Router) MyGroups(ctx context.Context, userID uuid.UUID) ([]*GroupView, error) {
	groups, err := r.conversations.GroupsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*GroupView, 0, len(groups))
	for _, g := range groups {
		view := &GroupView{Conversation: g}
		if g.LastMessageID != nil {
			last, err := r.messages.LastOf(ctx, g.ID, g.LastMessageID)
			if err != nil {
				return nil, err
			}
			view.LastMessage = last
		}
		views = append(views, view)
	}
	return views, nil
}

// NotInGroup lists the users that could still be added to the group.
func (r *Router) NotInGroup(ctx context.Context, requester, groupID uuid.UUID) ([]*user.User, error) {
	group, err := r.conversations.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	users, err := r.users.ListExcept(ctx, requester)
	if err != nil {
		return nil, err
	}

	out := make([]*user.User, 0, len(users))
	for _, u := range users {
		if !group.HasParticipant(u.ID) {
			out = append(out, u)
		}
	}
	return out, nil
}

// ParticipantNames maps member ids to usernames, keeping the input order and
// skipping unknown ids.
func (r *Router) ParticipantNames(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	users, err := r.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}
