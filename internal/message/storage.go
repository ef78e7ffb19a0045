package message

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrMessageNotFound = errors.New("message not found")

type Saver interface {
	SaveMessage(ctx context.Context, m *Message) error
}

type Provider interface {
	MessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]*Message, error)
	MessageByID(ctx context.Context, id uuid.UUID) (*Message, error)
	LatestMessage(ctx context.Context, conversationID uuid.UUID) (*Message, error)
}

const messageColumns = `id, conversation_id, sender_id, content, kind, read_by, created_at`

type PostgresStorage struct {
	db *sql.DB
}

func NewMessagePostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) SaveMessage(ctx context.Context, m *Message) error {
	readBy := make([]string, len(m.ReadBy))
	for i, id := range m.ReadBy {
		readBy[i] = id.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, kind, read_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.ConversationID, m.SenderID, m.Content, string(m.Kind), pq.Array(readBy), m.CreatedAt)
	return err
}

func (s *PostgresStorage) MessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *PostgresStorage) MessageByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	return scanMessage(s.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

func (s *PostgresStorage) LatestMessage(ctx context.Context, conversationID uuid.UUID) (*Message, error) {
	return scanMessage(s.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, conversationID))
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (*Message, error) {
	var (
		m      Message
		kind   string
		readBy []string
	)
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &kind, pq.Array(&readBy), &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	m.Kind = Kind(kind)
	m.ReadBy = make([]uuid.UUID, 0, len(readBy))
	for _, v := range readBy {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		m.ReadBy = append(m.ReadBy, id)
	}
	return &m, nil
}
