package message

import (
	"database/sql"

	"chatrelay/internal/conversation"
	"chatrelay/internal/metrics"

	"github.com/google/wire"
	"go.uber.org/zap"
)

func ProvideMessageStorage(db *sql.DB) *PostgresStorage {
	return NewMessagePostgresStorage(db)
}

func ProvideStore(storage *PostgresStorage, conversations conversation.Repository, recorder *metrics.Recorder, log *zap.Logger) *Store {
	return NewStore(storage, storage, conversations, recorder, log)
}

var Set = wire.NewSet(ProvideMessageStorage, ProvideStore)
