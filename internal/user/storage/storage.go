package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type Saver interface {
	SaveUser(tx *gorm.DB, user *User) error
	UpdateProfile(tx *gorm.DB, id uuid.UUID, username, picture string) error
}

type Provider interface {
	UserByEmail(tx *gorm.DB, email string) (*User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UsersExcept(ctx context.Context, id uuid.UUID) ([]*User, error)
	UsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
}

type GormStorage struct {
	db *gorm.DB
}

func NewUserGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB is the handle transactions are opened on.
func (s *GormStorage) DB() *gorm.DB { return s.db }

func (s *GormStorage) SaveUser(tx *gorm.DB, user *User) error {
	return tx.Create(user).Error
}

func (s *GormStorage) UpdateProfile(tx *gorm.DB, id uuid.UUID, username, picture string) error {
	return tx.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"username": username,
		"picture":  picture,
	}).Error
}

func (s *GormStorage) UserByEmail(tx *gorm.DB, email string) (*User, error) {
	var user User
	err := tx.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStorage) UserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStorage) UsersExcept(ctx context.Context, id uuid.UUID) ([]*User, error) {
	var users []*User
	err := s.db.WithContext(ctx).Where("id <> ?", id).Order("username").Find(&users).Error
	return users, err
}

func (s *GormStorage) UsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*User
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}
