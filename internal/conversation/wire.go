package conversation

import (
	"database/sql"

	"github.com/google/wire"
)

func ProvideConversationStorage(db *sql.DB) *PostgresStorage {
	return NewConversationPostgresStorage(db)
}

func ProvideRepository(db *sql.DB, storage *PostgresStorage) Repository {
	return NewRepository(db, storage, storage, storage, storage)
}

var Set = wire.NewSet(ProvideConversationStorage, ProvideRepository, NewResolver)
