package conversation

import (
	"context"
	"errors"
	"fmt"

	"chatrelay/infrastructure"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver locates the thread an operation targets.
type Resolver struct {
	repo Repository
	log  *zap.Logger
}

func NewResolver(repo Repository, log *zap.Logger) *Resolver {
	return &Resolver{repo: repo, log: log}
}

// FindOrCreateDirect returns the direct thread whose participants are exactly
// {a, b}, creating it on first contact. Concurrent first contact from both
// sides converges on a single thread.
func (r *Resolver) FindOrCreateDirect(ctx context.Context, a, b uuid.UUID) (*Conversation, error) {
	if a == b {
		return nil, fmt.Errorf("direct conversation needs two distinct users: %w", infrastructure.ErrInvalidInput)
	}

	c, err := r.repo.GetDirect(ctx, a, b)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, infrastructure.ErrNotFound) {
		return nil, err
	}

	c, err = r.repo.CreateDirect(ctx, a, b)
	if err != nil {
		return nil, err
	}
	r.log.Debug("direct conversation resolved",
		zap.String("conversationId", c.ID.String()),
		zap.String("a", a.String()),
		zap.String("b", b.String()),
	)
	return c, nil
}

// FindDirect is the read-only lookup; ErrNotFound when the pair never talked.
func (r *Resolver) FindDirect(ctx context.Context, a, b uuid.UUID) (*Conversation, error) {
	if a == b {
		return nil, fmt.Errorf("direct conversation %s: %w", a, infrastructure.ErrNotFound)
	}
	return r.repo.GetDirect(ctx, a, b)
}

// Group loads a group thread without an authorization check.
func (r *Resolver) Group(ctx context.Context, groupID uuid.UUID) (*Conversation, error) {
	c, err := r.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !c.IsGroup {
		return nil, fmt.Errorf("group %s: %w", groupID, infrastructure.ErrNotFound)
	}
	return c, nil
}

// FindGroup loads a group and requires participant to be a member of it.
func (r *Resolver) FindGroup(ctx context.Context, groupID, participant uuid.UUID) (*Conversation, error) {
	c, err := r.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(participant) {
		return nil, fmt.Errorf("user %s is not in group %s: %w", participant, groupID, infrastructure.ErrForbidden)
	}
	return c, nil
}

func (r *Resolver) DirectFor(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	return r.repo.ListFor(ctx, userID, false)
}

func (r *Resolver) GroupsFor(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	return r.repo.ListFor(ctx, userID, true)
}

func (r *Resolver) CreateGroup(ctx context.Context, group *Conversation) error {
	return r.repo.CreateGroup(ctx, group)
}

func (r *Resolver) AddParticipant(ctx context.Context, groupID, actorID, userID uuid.UUID) (*Conversation, error) {
	return r.repo.AddParticipant(ctx, groupID, actorID, userID)
}

func (r *Resolver) RemoveParticipant(ctx context.Context, groupID, userID uuid.UUID) (*Leave, error) {
	return r.repo.RemoveParticipant(ctx, groupID, userID)
}
