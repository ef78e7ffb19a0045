package user

import (
	"chatrelay/internal/database"
	"chatrelay/internal/user/storage"

	"github.com/google/wire"
)

// ProvideUserStorage is a Wire provider function that creates a storage.GormStorage
func ProvideUserStorage(db *database.Database) *storage.GormStorage {
	return storage.NewUserGormStorage(db.DB)
}

func ProvideRepository(storage *storage.GormStorage) Repository {
	return NewRepository(storage.DB(), storage, storage)
}

var Set = wire.NewSet(ProvideUserStorage, ProvideRepository)
