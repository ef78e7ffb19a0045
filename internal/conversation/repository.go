package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatrelay/infrastructure"

	"github.com/google/uuid"
)

type Repository interface {
	CreateDirect(ctx context.Context, a, b uuid.UUID) (*Conversation, error)
	GetDirect(ctx context.Context, a, b uuid.UUID) (*Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	ListFor(ctx context.Context, userID uuid.UUID, group bool) ([]*Conversation, error)
	CreateGroup(ctx context.Context, group *Conversation) error
	AddParticipant(ctx context.Context, groupID, actorID, userID uuid.UUID) (*Conversation, error)
	RemoveParticipant(ctx context.Context, groupID, userID uuid.UUID) (*Leave, error)
	SetLastMessage(ctx context.Context, id, messageID uuid.UUID, at time.Time) error
}

type repository struct {
	*sql.DB
	saver    Saver
	provider Provider
	updater  Updater
	deleter  Deleter
}

func NewRepository(db *sql.DB, saver Saver, provider Provider, updater Updater, deleter Deleter) Repository {
	return &repository{
		DB:       db,
		saver:    saver,
		provider: provider,
		updater:  updater,
		deleter:  deleter,
	}
}

// CreateDirect inserts the direct thread for the pair unless one already
// exists, then returns whichever row holds the pair.
func (r *repository) CreateDirect(ctx context.Context, a, b uuid.UUID) (*Conversation, error) {
	key := DirectKey(a, b)
	now := time.Now().UTC()
	c := &Conversation{
		ID:           uuid.New(),
		Participants: []uuid.UUID{a, b},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := infrastructure.WithTransaction(ctx, r.DB, func(tx *sql.Tx) error {
		_, err := r.saver.SaveConversation(tx, c, sql.NullString{String: key, Valid: true})
		return err
	})
	if err != nil {
		return nil, infrastructure.Storage("create direct conversation", err)
	}
	return r.byKey(ctx, key)
}

func (r *repository) GetDirect(ctx context.Context, a, b uuid.UUID) (*Conversation, error) {
	return r.byKey(ctx, DirectKey(a, b))
}

func (r *repository) byKey(ctx context.Context, key string) (*Conversation, error) {
	c, err := r.provider.ConversationByDirectKey(ctx, key)
	if errors.Is(err, ErrConversationNotFound) {
		return nil, fmt.Errorf("direct conversation %s: %w", key, infrastructure.ErrNotFound)
	}
	if err != nil {
		return nil, infrastructure.Storage("get direct conversation", err)
	}
	return c, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	c, err := r.provider.ConversationByID(ctx, id)
	if errors.Is(err, ErrConversationNotFound) {
		return nil, fmt.Errorf("conversation %s: %w", id, infrastructure.ErrNotFound)
	}
	if err != nil {
		return nil, infrastructure.Storage("get conversation", err)
	}
	return c, nil
}

func (r *repository) ListFor(ctx context.Context, userID uuid.UUID, group bool) ([]*Conversation, error) {
	conversations, err := r.provider.ConversationsFor(ctx, userID, group)
	if err != nil {
		return nil, infrastructure.Storage("list conversations", err)
	}
	return conversations, nil
}

func (r *repository) CreateGroup(ctx context.Context, group *Conversation) error {
	err := infrastructure.WithTransaction(ctx, r.DB, func(tx *sql.Tx) error {
		_, err := r.saver.SaveConversation(tx, group, sql.NullString{})
		return err
	})
	if err != nil {
		return infrastructure.Storage("create group", err)
	}
	return nil
}

// AddParticipant appends userID to the group. The actor must already be a
// member. The row is locked so concurrent membership changes serialize.
func (r *repository) AddParticipant(ctx context.Context, groupID, actorID, userID uuid.UUID) (group *Conversation, err error) {
	err = infrastructure.WithTransaction(ctx, r.DB, func(tx *sql.Tx) error {
		group, err = r.lockGroup(tx, groupID)
		if err != nil {
			return err
		}
		if err := group.AddMember(actorID, userID); err != nil {
			return err
		}
		return r.updater.UpdateMembership(tx, group.ID, group.Participants, group.GroupAdmin)
	})
	if err != nil {
		return nil, storageOr(err, "add group member")
	}
	return group, nil
}

// RemoveParticipant takes userID out of the group. A departing admin hands
// the role to the first remaining member; the group is deleted once empty.
func (r *repository) RemoveParticipant(ctx context.Context, groupID, userID uuid.UUID) (leave *Leave, err error) {
	err = infrastructure.WithTransaction(ctx, r.DB, func(tx *sql.Tx) error {
		group, err := r.lockGroup(tx, groupID)
		if err != nil {
			return err
		}
		leave, err = group.RemoveMember(userID)
		if err != nil {
			return err
		}
		if leave.Deleted {
			return r.deleter.DeleteConversation(tx, group.ID)
		}
		return r.updater.UpdateMembership(tx, group.ID, group.Participants, group.GroupAdmin)
	})
	if err != nil {
		return nil, storageOr(err, "leave group")
	}
	return leave, nil
}

func (r *repository) SetLastMessage(ctx context.Context, id, messageID uuid.UUID, at time.Time) error {
	if err := r.updater.UpdateLastMessage(ctx, id, messageID, at); err != nil {
		return infrastructure.Storage("set last message", err)
	}
	return nil
}

func (r *repository) lockGroup(tx *sql.Tx, groupID uuid.UUID) (*Conversation, error) {
	group, err := r.provider.LockConversation(tx, groupID)
	if errors.Is(err, ErrConversationNotFound) {
		return nil, fmt.Errorf("group %s: %w", groupID, infrastructure.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !group.IsGroup {
		return nil, fmt.Errorf("group %s: %w", groupID, infrastructure.ErrNotFound)
	}
	return group, nil
}

// storageOr keeps taxonomy errors raised inside a transaction and wraps
// anything else as a storage failure.
func storageOr(err error, op string) error {
	for _, kept := range []error{
		infrastructure.ErrNotFound,
		infrastructure.ErrForbidden,
		infrastructure.ErrConflict,
		infrastructure.ErrStorage,
	} {
		if errors.Is(err, kept) {
			return err
		}
	}
	return infrastructure.Storage(op, err)
}
