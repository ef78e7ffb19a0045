package auth

import (
	"context"
	"fmt"
	"strings"

	"chatrelay/infrastructure"
	"chatrelay/internal/realtime"
	"chatrelay/internal/user"

	"go.uber.org/zap"
)

// Broadcaster reaches every live connection.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev realtime.Event)
}

type UseCase interface {
	// SignIn records the externally verified profile and issues an identity
	// token for it.
	SignIn(ctx context.Context, profile user.Profile) (string, *user.User, error)
}

type useCase struct {
	users       user.Repository
	tokens      *infrastructure.Tokens
	broadcaster Broadcaster
	log         *zap.Logger
}

func NewUseCase(users user.Repository, tokens *infrastructure.Tokens, broadcaster Broadcaster, log *zap.Logger) UseCase {
	return &useCase{
		users:       users,
		tokens:      tokens,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (uc *useCase) SignIn(ctx context.Context, profile user.Profile) (string, *user.User, error) {
	profile.Email = strings.TrimSpace(profile.Email)
	profile.Username = strings.TrimSpace(profile.Username)
	if profile.Email == "" || profile.Username == "" {
		return "", nil, fmt.Errorf("email and username are required: %w", infrastructure.ErrInvalidInput)
	}

	u, created, err := uc.users.Upsert(ctx, profile)
	if err != nil {
		return "", nil, err
	}

	token, err := uc.tokens.Issue(infrastructure.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Picture:  u.Picture,
	})
	if err != nil {
		return "", nil, err
	}

	if created {
		uc.log.Info("new user registered", zap.String("userId", u.ID.String()))
		uc.broadcaster.Broadcast(ctx, realtime.Event{Type: realtime.EventNewUserRegistered})
	}
	return token, u, nil
}
