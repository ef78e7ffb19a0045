package database

import (
	"context"
	"database/sql"
	"fmt"

	"chatrelay/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Database struct {
	*gorm.DB
	log *zap.Logger
}

func NewDatabase(cfg config.DatabaseConfig, log *zap.Logger) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Info("connected to database")
	return &Database{DB: db, log: log}, nil
}

// SQL exposes the pooled handle for the raw-SQL storages.
func (db *Database) SQL() (*sql.DB, error) {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB, nil
}

func (db *Database) Ping(ctx context.Context) error {
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate auto-migrates the given gorm models and then applies the
// conversation and message schema.
func (db *Database) Migrate(ctx context.Context, models ...interface{}) error {
	if len(models) > 0 {
		if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	for _, stmt := range schema {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	db.log.Info("database migration completed")
	return nil
}

func (db *Database) Close() error {
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
