package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// TimeOperation executes an operation and logs its execution time
func TimeOperation(ctx context.Context, log *zap.Logger, name string, operation func() error) error {
	start := time.Now()
	err := operation()
	log.Debug("operation finished",
		zap.String("op", name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return err
}

// WithTransaction handles a database transaction and executes the given operation
func WithTransaction(ctx context.Context, db *sql.DB, operation func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Storage("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-throw panic after Rollback
		} else if err != nil {
			_ = tx.Rollback()
		} else if cerr := tx.Commit(); cerr != nil {
			err = Storage("commit transaction", cerr)
		}
	}()

	err = operation(tx)
	return err
}
