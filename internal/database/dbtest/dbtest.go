// Package dbtest starts a throwaway postgres for storage tests.
package dbtest

import (
	"context"
	"testing"

	"chatrelay/config"
	"chatrelay/internal/database"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"
)

// New returns a migrated database backed by a postgres container. The test is
// skipped when no container runtime is reachable.
func New(t *testing.T, models ...interface{}) *database.Database {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("chatrelay"),
		postgres.WithUsername("chatrelay"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable", "application_name=test")
	require.NoError(t, err)

	db, err := database.NewDatabase(config.DatabaseConfig{DSN: dsn, MaxOpenConns: 10, MaxIdleConns: 2}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx, models...))
	return db
}
