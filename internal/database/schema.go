package database

var schema = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id              uuid PRIMARY KEY,
		participants    uuid[] NOT NULL,
		is_group        boolean NOT NULL DEFAULT false,
		group_name      text NOT NULL DEFAULT '',
		group_picture   text NOT NULL DEFAULT '',
		group_admin     uuid,
		direct_key      text,
		last_message_id uuid,
		created_at      timestamptz NOT NULL DEFAULT now(),
		updated_at      timestamptz NOT NULL DEFAULT now()
	)`,
	// NULL keys (groups) never collide, so one index covers direct threads only.
	`CREATE UNIQUE INDEX IF NOT EXISTS conversations_direct_key_idx ON conversations (direct_key)`,
	`CREATE INDEX IF NOT EXISTS conversations_participants_idx ON conversations USING GIN (participants)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              uuid PRIMARY KEY,
		conversation_id uuid NOT NULL REFERENCES conversations (id) ON DELETE CASCADE,
		sender_id       uuid NOT NULL,
		content         text NOT NULL,
		kind            text NOT NULL DEFAULT 'text',
		read_by         uuid[] NOT NULL DEFAULT '{}',
		created_at      timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS messages_conversation_created_idx ON messages (conversation_id, created_at)`,
}
