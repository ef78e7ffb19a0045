package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatrelay/infrastructure"
	"chatrelay/internal/user/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Upsert creates the user on first sign-in (created == true) or refreshes
	// the stored profile of an existing one.
	Upsert(ctx context.Context, profile Profile) (user *User, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListExcept(ctx context.Context, id uuid.UUID) ([]*User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
}

type repository struct {
	db           *gorm.DB
	userSaver    storage.Saver
	userProvider storage.Provider
}

func NewRepository(db *gorm.DB, userSaver storage.Saver, userProvider storage.Provider) Repository {
	return &repository{
		db:           db,
		userSaver:    userSaver,
		userProvider: userProvider,
	}
}

func (r *repository) Upsert(ctx context.Context, profile Profile) (rUser *User, created bool, err error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return nil, false, fmt.Errorf("email is required: %w", infrastructure.ErrInvalidInput)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.userProvider.UserByEmail(tx, email)
		switch {
		case err == nil:
			if existing.Username != profile.Username || existing.Picture != profile.Picture {
				if err := r.userSaver.UpdateProfile(tx, existing.ID, profile.Username, profile.Picture); err != nil {
					return err
				}
				existing.Username, existing.Picture = profile.Username, profile.Picture
			}
			rUser = ConvertDBUserToUser(existing)
			return nil
		case errors.Is(err, storage.ErrUserNotFound):
			now := time.Now().UTC()
			dbUser := &storage.User{
				ID:        uuid.New(),
				Username:  profile.Username,
				Email:     email,
				Picture:   profile.Picture,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := r.userSaver.SaveUser(tx, dbUser); err != nil {
				return err
			}
			rUser, created = ConvertDBUserToUser(dbUser), true
			return nil
		default:
			return err
		}
	})

	// A concurrent first sign-in for the same email won the insert.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, rerr := r.userProvider.UserByEmail(r.db.WithContext(ctx), email)
		if rerr != nil {
			return nil, false, infrastructure.Storage("upsert user", rerr)
		}
		return ConvertDBUserToUser(existing), false, nil
	}
	if err != nil {
		return nil, false, infrastructure.Storage("upsert user", err)
	}
	return rUser, created, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser, err := r.userProvider.UserByID(ctx, id)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, infrastructure.ErrNotFound)
	}
	if err != nil {
		return nil, infrastructure.Storage("get user", err)
	}
	return ConvertDBUserToUser(dbUser), nil
}

func (r *repository) ListExcept(ctx context.Context, id uuid.UUID) ([]*User, error) {
	dbUsers, err := r.userProvider.UsersExcept(ctx, id)
	if err != nil {
		return nil, infrastructure.Storage("list users", err)
	}
	return convertDBUsers(dbUsers), nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error) {
	dbUsers, err := r.userProvider.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, infrastructure.Storage("get users", err)
	}
	return convertDBUsers(dbUsers), nil
}
