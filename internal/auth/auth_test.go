package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chatrelay/infrastructure"
	"chatrelay/internal/realtime"
	"chatrelay/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*user.User
	err     error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*user.User{}}
}

func (f *fakeUsers) Upsert(_ context.Context, p user.Profile) (*user.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	email := strings.ToLower(p.Email)
	if u, ok := f.byEmail[email]; ok {
		u.Username, u.Picture = p.Username, p.Picture
		return u, false, nil
	}
	u := &user.User{ID: uuid.New(), Email: email, Username: p.Username, Picture: p.Picture, CreatedAt: time.Now()}
	f.byEmail[email] = u
	return u, true, nil
}

func (f *fakeUsers) GetByID(context.Context, uuid.UUID) (*user.User, error) {
	return nil, infrastructure.ErrNotFound
}

func (f *fakeUsers) ListExcept(context.Context, uuid.UUID) ([]*user.User, error) { return nil, nil }

func (f *fakeUsers) GetByIDs(context.Context, []uuid.UUID) ([]*user.User, error) { return nil, nil }

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, ev realtime.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func newRouter(h *JSONHandler, tokens *infrastructure.Tokens) *gin.Engine {
	r := gin.New()
	r.POST("/auth/google", h.SignIn)
	r.GET("/me", Middleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, MustIdentity(c))
	})
	return r
}

func postSignIn(t *testing.T, r http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/google", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignIn(t *testing.T) {
	tokens := infrastructure.NewTokens("secret", time.Hour)
	users := newFakeUsers()
	broadcaster := &recordingBroadcaster{}
	h := NewJSONHandler(NewUseCase(users, tokens, broadcaster, zap.NewNop()), zap.NewNop())
	r := newRouter(h, tokens)

	profile := map[string]string{"email": "Ada@Example.com", "username": "ada", "picture": "https://img/ada.png"}

	w := postSignIn(t, r, profile)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.com", resp.User.Email)

	identity, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, identity.UserID)
	assert.Equal(t, "ada", identity.Username)

	require.Len(t, broadcaster.events, 1)
	assert.Equal(t, realtime.EventNewUserRegistered, broadcaster.events[0].Type)

	t.Run("returning user is not announced", func(t *testing.T) {
		w := postSignIn(t, r, profile)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, broadcaster.events, 1)
	})
}

func TestSignInRejectsIncompleteProfile(t *testing.T) {
	tokens := infrastructure.NewTokens("secret", time.Hour)
	h := NewJSONHandler(NewUseCase(newFakeUsers(), tokens, &recordingBroadcaster{}, zap.NewNop()), zap.NewNop())
	r := newRouter(h, tokens)

	for _, body := range []map[string]string{
		{"username": "ada"},
		{"email": "ada@example.com"},
		{"email": "  ", "username": "ada"},
	} {
		w := postSignIn(t, r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
	}
}

func TestSignInStorageFailure(t *testing.T) {
	tokens := infrastructure.NewTokens("secret", time.Hour)
	users := newFakeUsers()
	users.err = infrastructure.Storage("upsert user", errors.New("dial tcp: refused"))
	h := NewJSONHandler(NewUseCase(users, tokens, &recordingBroadcaster{}, zap.NewNop()), zap.NewNop())

	w := postSignIn(t, newRouter(h, tokens), map[string]string{"email": "ada@example.com", "username": "ada"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "dial tcp")
}

func TestMiddleware(t *testing.T) {
	tokens := infrastructure.NewTokens("secret", time.Hour)
	h := NewJSONHandler(NewUseCase(newFakeUsers(), tokens, &recordingBroadcaster{}, zap.NewNop()), zap.NewNop())
	r := newRouter(h, tokens)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer nonsense")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		id := infrastructure.Identity{UserID: uuid.New(), Username: "ada"}
		signed, err := tokens.Issue(id)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var got infrastructure.Identity
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, id, got)
	})
}
