package conversation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrConversationNotFound = errors.New("conversation not found")

type Saver interface {
	SaveConversation(tx *sql.Tx, c *Conversation, directKey sql.NullString) (bool, error)
}

type Provider interface {
	ConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	ConversationByDirectKey(ctx context.Context, key string) (*Conversation, error)
	ConversationsFor(ctx context.Context, userID uuid.UUID, group bool) ([]*Conversation, error)
	LockConversation(tx *sql.Tx, id uuid.UUID) (*Conversation, error)
}

type Updater interface {
	UpdateMembership(tx *sql.Tx, id uuid.UUID, participants []uuid.UUID, admin *uuid.UUID) error
	UpdateLastMessage(ctx context.Context, id, messageID uuid.UUID, at time.Time) error
}

type Deleter interface {
	DeleteConversation(tx *sql.Tx, id uuid.UUID) error
}

const conversationColumns = `id, participants, is_group, group_name, group_picture,
	group_admin, last_message_id, created_at, updated_at`

type PostgresStorage struct {
	db *sql.DB
}

func NewConversationPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// SaveConversation inserts c. A direct thread whose pair already exists is
// skipped and reported as not inserted.
func (s *PostgresStorage) SaveConversation(tx *sql.Tx, c *Conversation, directKey sql.NullString) (bool, error) {
	res, err := tx.Exec(`
		INSERT INTO conversations (id, participants, is_group, group_name, group_picture,
		                           group_admin, direct_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (direct_key) DO NOTHING`,
		c.ID, pq.Array(uuidStrings(c.Participants)), c.IsGroup, c.GroupName, c.GroupPicture,
		nullUUID(c.GroupAdmin), directKey, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStorage) ConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

func (s *PostgresStorage) ConversationByDirectKey(ctx context.Context, key string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE direct_key = $1`, key)
	return scanConversation(row)
}

// ConversationsFor lists the user's direct or group threads, most recently
// active first.
func (s *PostgresStorage) ConversationsFor(ctx context.Context, userID uuid.UUID, group bool) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE participants @> ARRAY[$1]::uuid[] AND is_group = $2
		ORDER BY updated_at DESC`, userID, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (s *PostgresStorage) LockConversation(tx *sql.Tx, id uuid.UUID) (*Conversation, error) {
	row := tx.QueryRow(`SELECT `+conversationColumns+` FROM conversations WHERE id = $1 FOR UPDATE`, id)
	return scanConversation(row)
}

func (s *PostgresStorage) UpdateMembership(tx *sql.Tx, id uuid.UUID, participants []uuid.UUID, admin *uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE conversations SET participants = $2, group_admin = $3, updated_at = now()
		WHERE id = $1`,
		id, pq.Array(uuidStrings(participants)), nullUUID(admin))
	return err
}

func (s *PostgresStorage) UpdateLastMessage(ctx context.Context, id, messageID uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET last_message_id = $2, updated_at = $3 WHERE id = $1`,
		id, messageID, at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteConversation(tx *sql.Tx, id uuid.UUID) error {
	_, err := tx.Exec(`DELETE FROM conversations WHERE id = $1`, id)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanConversation(row scanner) (*Conversation, error) {
	var (
		c            Conversation
		participants []string
		admin        uuid.NullUUID
		lastMessage  uuid.NullUUID
	)
	err := row.Scan(&c.ID, pq.Array(&participants), &c.IsGroup, &c.GroupName, &c.GroupPicture,
		&admin, &lastMessage, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	c.Participants, err = parseUUIDs(participants)
	if err != nil {
		return nil, err
	}
	if admin.Valid {
		c.GroupAdmin = &admin.UUID
	}
	if lastMessage.Valid {
		c.LastMessageID = &lastMessage.UUID
	}
	return &c, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
