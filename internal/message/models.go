package message

import (
	"fmt"
	"time"

	"chatrelay/infrastructure"

	"github.com/google/uuid"
)

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindText, KindImage, KindFile:
		return k, nil
	case "":
		return KindText, nil
	}
	return "", fmt.Errorf("unknown message kind %q: %w", s, infrastructure.ErrInvalidInput)
}

// Preview renders the directory-listing preview of a message.
func (k Kind) Preview(content string) string {
	switch k {
	case KindImage:
		return "📷 Photo"
	case KindFile:
		return "📎 File"
	}
	return content
}

type Message struct {
	ID             uuid.UUID   `json:"_id"`
	ConversationID uuid.UUID   `json:"conversationId"`
	SenderID       uuid.UUID   `json:"sender"`
	Content        string      `json:"content"`
	Kind           Kind        `json:"messageType"`
	ReadBy         []uuid.UUID `json:"readBy"`
	CreatedAt      time.Time   `json:"createdAt"`
}
