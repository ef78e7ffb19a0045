package database_test

import (
	"context"
	"testing"

	"chatrelay/internal/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Ping(ctx))

	var tables []string
	require.NoError(t, db.Raw(`SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' ORDER BY table_name`).Scan(&tables).Error)
	assert.Contains(t, tables, "conversations")
	assert.Contains(t, tables, "messages")
}

func TestDirectKeyIsUnique(t *testing.T) {
	db := dbtest.New(t)

	insert := `INSERT INTO conversations (id, participants, direct_key)
		VALUES (gen_random_uuid(), '{}', 'a:b')`
	require.NoError(t, db.Exec(insert).Error)
	assert.Error(t, db.Exec(insert).Error)

	group := `INSERT INTO conversations (id, participants, is_group) VALUES (gen_random_uuid(), '{}', true)`
	require.NoError(t, db.Exec(group).Error)
	require.NoError(t, db.Exec(group).Error)
}
