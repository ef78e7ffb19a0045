package chat_test

import (
	"context"
	"testing"
	"time"

	"chatrelay/infrastructure"
	"chatrelay/internal/chat"
	"chatrelay/internal/message"
	"chatrelay/internal/realtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol := f.users.add("admin"), f.users.add("bob"), f.users.add("carol")
	f.pusher.setOnline(admin.UserID, bob.UserID, carol.UserID)

	group, err := f.router.CreateGroup(ctx, admin, chat.NewGroup{
		Name:    " team ",
		Members: []uuid.UUID{bob.UserID, carol.UserID, bob.UserID, admin.UserID},
	})
	require.NoError(t, err)

	assert.Equal(t, "team", group.GroupName)
	assert.Equal(t, []uuid.UUID{bob.UserID, carol.UserID, admin.UserID}, group.Participants)
	assert.True(t, group.IsAdmin(admin.UserID))

	for _, id := range []uuid.UUID{bob.UserID, carol.UserID} {
		events := f.pusher.received(id)
		require.Len(t, events, 1)
		assert.Equal(t, realtime.EventGroupCreated, events[0].Type)
	}
	assert.Empty(t, f.pusher.received(admin.UserID))
}

func TestCreateGroupValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol := f.users.add("admin"), f.users.add("bob"), f.users.add("carol")

	cases := map[string]chat.NewGroup{
		"missing name":      {Name: "  ", Members: []uuid.UUID{bob.UserID, carol.UserID}},
		"one other member":  {Name: "pair", Members: []uuid.UUID{bob.UserID, bob.UserID, admin.UserID}},
		"unknown member":    {Name: "ghosts", Members: []uuid.UUID{bob.UserID, uuid.New()}},
		"no members at all": {Name: "empty"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.router.CreateGroup(ctx, admin, in)
			assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)
		})
	}
	assert.Zero(t, f.convs.Count())
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol, dave := f.users.add("admin"), f.users.add("bob"), f.users.add("carol"), f.users.add("dave")

	group, err := f.router.CreateGroup(ctx, admin, chat.NewGroup{Name: "team", Members: []uuid.UUID{bob.UserID, carol.UserID}})
	require.NoError(t, err)
	f.pusher.setOnline(admin.UserID, bob.UserID, dave.UserID)

	updated, err := f.router.AddMember(ctx, bob, group.ID, dave.UserID)
	require.NoError(t, err)
	assert.True(t, updated.HasParticipant(dave.UserID))

	for _, id := range []uuid.UUID{admin.UserID, bob.UserID, dave.UserID} {
		events := f.pusher.received(id)
		require.NotEmpty(t, events)
		assert.Equal(t, realtime.GroupUpdated{GroupID: group.ID}, events[len(events)-1].Data)
	}

	_, err = f.router.AddMember(ctx, bob, group.ID, dave.UserID)
	assert.ErrorIs(t, err, infrastructure.ErrConflict)

	outsider := f.users.add("outsider")
	_, err = f.router.AddMember(ctx, outsider, group.ID, f.users.add("eve").UserID)
	assert.ErrorIs(t, err, infrastructure.ErrForbidden)

	_, err = f.router.AddMember(ctx, bob, group.ID, uuid.New())
	assert.ErrorIs(t, err, infrastructure.ErrNotFound)
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol := f.users.add("admin"), f.users.add("bob"), f.users.add("carol")

	group, err := f.router.CreateGroup(ctx, admin, chat.NewGroup{Name: "team", Members: []uuid.UUID{bob.UserID, carol.UserID}})
	require.NoError(t, err)
	f.pusher.setOnline(admin.UserID, bob.UserID, carol.UserID)

	leave, err := f.router.Leave(ctx, carol.UserID, group.ID)
	require.NoError(t, err)
	assert.False(t, leave.Group.HasParticipant(carol.UserID))
	assert.True(t, leave.Group.IsAdmin(admin.UserID))
	require.NotEmpty(t, f.pusher.received(carol.UserID))

	leave, err = f.router.Leave(ctx, admin.UserID, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob.UserID}, leave.Group.Participants)
	assert.True(t, leave.Group.IsAdmin(bob.UserID))

	leave, err = f.router.Leave(ctx, bob.UserID, group.ID)
	require.NoError(t, err)
	assert.True(t, leave.Deleted)

	_, err = f.router.GroupInfo(ctx, group.ID)
	assert.ErrorIs(t, err, infrastructure.ErrNotFound)

	_, err = f.router.Leave(ctx, bob.UserID, group.ID)
	assert.ErrorIs(t, err, infrastructure.ErrNotFound)
}

func TestLeaveByNonMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol := f.users.add("admin"), f.users.add("bob"), f.users.add("carol")

	group, err := f.router.CreateGroup(ctx, admin, chat.NewGroup{Name: "team", Members: []uuid.UUID{bob.UserID, carol.UserID}})
	require.NoError(t, err)

	_, err = f.router.Leave(ctx, f.users.add("dave").UserID, group.ID)
	assert.ErrorIs(t, err, infrastructure.ErrForbidden)
}

func TestGroupInfo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol := f.users.add("admin"), f.users.add("bob"), f.users.add("carol")

	group, err := f.router.CreateGroup(ctx, admin, chat.NewGroup{Name: "team", Members: []uuid.UUID{bob.UserID, carol.UserID}})
	require.NoError(t, err)

	info, err := f.router.GroupInfo(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, group.ID, info.GroupID)
	assert.ElementsMatch(t, []uuid.UUID{admin.UserID, bob.UserID, carol.UserID}, info.Members)
}

func TestMyGroupsResolvesLastMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol := f.users.add("admin"), f.users.add("bob"), f.users.add("carol")

	quiet, err := f.router.CreateGroup(ctx, admin, chat.NewGroup{Name: "quiet", Members: []uuid.UUID{bob.UserID, carol.UserID}})
	require.NoError(t, err)
	busy, err := f.router.CreateGroup(ctx, admin, chat.NewGroup{Name: "busy", Members: []uuid.UUID{bob.UserID, carol.UserID}})
	require.NoError(t, err)
	_, err = f.router.SendGroup(ctx, bob, busy.ID, "ping")
	require.NoError(t, err)

	views, err := f.router.MyGroups(ctx, carol.UserID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, busy.ID, views[0].ID)
	require.NotNil(t, views[0].LastMessage)
	assert.Equal(t, "ping", views[0].LastMessage.Content)
	assert.Equal(t, quiet.ID, views[1].ID)
	assert.Nil(t, views[1].LastMessage)
}

func TestNotInGroupAndParticipantNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin, bob, carol, dave := f.users.add("admin"), f.users.add("bob"), f.users.add("carol"), f.users.add("dave")

	group, err := f.router.CreateGroup(ctx, admin, chat.NewGroup{Name: "team", Members: []uuid.UUID{bob.UserID, carol.UserID}})
	require.NoError(t, err)

	candidates, err := f.router.NotInGroup(ctx, admin.UserID, group.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, dave.UserID, candidates[0].ID)

	names, err := f.router.ParticipantNames(ctx, []uuid.UUID{carol.UserID, uuid.New(), bob.UserID})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob"}, names)
}

func TestListReachableUsersOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.users.add("alice")
	bob, carol, dave := f.users.add("bob"), f.users.add("carol"), f.users.add("dave")
	f.pusher.setOnline(carol.UserID)

	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	seed := func(peer uuid.UUID, at time.Time, content string, kind message.Kind) {
		c, err := f.resolver.FindOrCreateDirect(ctx, alice.UserID, peer)
		require.NoError(t, err)
		m := &message.Message{ID: uuid.New(), ConversationID: c.ID, SenderID: peer, Content: content, Kind: kind, CreatedAt: at}
		require.NoError(t, f.msgs.SaveMessage(ctx, m))
		require.NoError(t, f.convs.SetLastMessage(ctx, c.ID, m.ID, at))
	}
	seed(bob.UserID, t1, "older", message.KindText)
	seed(carol.UserID, t2, "https://cdn.example.com/cat.png", message.KindImage)

	entries, err := f.router.ListReachableUsers(ctx, alice.UserID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []uuid.UUID{carol.UserID, bob.UserID, dave.UserID},
		[]uuid.UUID{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.Equal(t, "📷 Photo", entries[0].LastMessage)
	assert.True(t, entries[0].IsOnline)
	assert.Equal(t, "older", entries[1].LastMessage)
	assert.Equal(t, t1, *entries[1].LastMessageTimestamp)
	assert.Nil(t, entries[2].LastMessageTimestamp)
	assert.False(t, entries[2].IsOnline)
}

func TestDirectHistoryWithStranger(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.users.add("alice"), f.users.add("bob")

	history, err := f.router.DirectHistory(context.Background(), alice.UserID, bob.UserID)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}
