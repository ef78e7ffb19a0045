package message_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatrelay/infrastructure"
	"chatrelay/internal/message"
	"chatrelay/internal/message/messagetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type pointerFunc func(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) error

func (f pointerFunc) SetLastMessage(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) error {
	return f(ctx, conversationID, messageID, at)
}

func TestAppendPersistsThenMovesPointer(t *testing.T) {
	storage := messagetest.NewMemory()
	conversationID, sender := uuid.New(), uuid.New()

	var pointed uuid.UUID
	store := message.NewStore(storage, storage, pointerFunc(func(_ context.Context, cid, mid uuid.UUID, _ time.Time) error {
		// The message must already be stored when the pointer moves.
		assert.Equal(t, 1, storage.Len())
		assert.Equal(t, conversationID, cid)
		pointed = mid
		return nil
	}), nil, zap.NewNop())

	m, err := store.Append(context.Background(), conversationID, sender, "hello", message.KindText)
	require.NoError(t, err)
	assert.Equal(t, m.ID, pointed)
	assert.Equal(t, sender, m.SenderID)
}

func TestAppendSurvivesPointerFailure(t *testing.T) {
	storage := messagetest.NewMemory()
	core, logs := observer.New(zap.WarnLevel)
	store := message.NewStore(storage, storage, pointerFunc(func(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
		return errors.New("conversation row locked")
	}), nil, zap.New(core))

	conversationID := uuid.New()
	m, err := store.Append(context.Background(), conversationID, uuid.New(), "https://cdn/x.png", message.KindImage)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 1, logs.FilterMessage("failed to update last message pointer").Len())

	last, err := store.LastOf(context.Background(), conversationID, nil)
	require.NoError(t, err)
	assert.Equal(t, m.ID, last.ID)
}

func TestAppendInsertFailureSurfaces(t *testing.T) {
	storage := messagetest.NewMemory()
	storage.FailSave = true
	called := false
	store := message.NewStore(storage, storage, pointerFunc(func(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
		called = true
		return nil
	}), nil, zap.NewNop())

	_, err := store.Append(context.Background(), uuid.New(), uuid.New(), "hi", message.KindText)
	assert.ErrorIs(t, err, infrastructure.ErrStorage)
	assert.ErrorIs(t, err, messagetest.ErrInjected)
	assert.False(t, called)
}

func TestAppendRejectsEmpty(t *testing.T) {
	storage := messagetest.NewMemory()
	store := message.NewStore(storage, storage, pointerFunc(func(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
		return nil
	}), nil, zap.NewNop())

	_, err := store.Append(context.Background(), uuid.New(), uuid.New(), "   ", message.KindText)
	assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)
	assert.Zero(t, storage.Len())
}

func TestHistoryAndLastOf(t *testing.T) {
	storage := messagetest.NewMemory()
	store := message.NewStore(storage, storage, pointerFunc(func(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
		return nil
	}), nil, zap.NewNop())
	ctx := context.Background()
	conversationID := uuid.New()

	first, err := store.Append(ctx, conversationID, uuid.New(), "one", message.KindText)
	require.NoError(t, err)
	second, err := store.Append(ctx, conversationID, uuid.New(), "two", message.KindText)
	require.NoError(t, err)

	history, err := store.History(ctx, conversationID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)

	last, err := store.LastOf(ctx, conversationID, &first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, last.ID)

	dangling := uuid.New()
	last, err = store.LastOf(ctx, conversationID, &dangling)
	require.NoError(t, err)
	assert.Equal(t, second.ID, last.ID)

	none, err := store.Latest(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestKind(t *testing.T) {
	k, err := message.ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, message.KindText, k)

	_, err = message.ParseKind("video")
	assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)

	assert.Equal(t, "📷 Photo", message.KindImage.Preview("https://cdn/x.png"))
	assert.Equal(t, "📎 File", message.KindFile.Preview("https://cdn/x.pdf"))
	assert.Equal(t, "hi", message.KindText.Preview("hi"))
}
