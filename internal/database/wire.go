package database

import (
	"database/sql"

	"chatrelay/config"

	"github.com/google/wire"
	"go.uber.org/zap"
)

func ProvideDatabase(cfg *config.Config, log *zap.Logger) (*Database, func(), error) {
	db, err := NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}, nil
}

func ProvideSQL(db *Database) (*sql.DB, error) {
	return db.SQL()
}

var Set = wire.NewSet(ProvideDatabase, ProvideSQL)
