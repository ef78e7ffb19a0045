package realtime

import (
	"context"
	"errors"
	"strings"

	"chatrelay/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

type Handler struct {
	lifecycle *Lifecycle
	opts      *websocket.AcceptOptions
	log       *zap.Logger
}

func NewHandler(lifecycle *Lifecycle, cfg config.WSConfig, log *zap.Logger) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		opts:      &websocket.AcceptOptions{InsecureSkipVerify: cfg.InsecureSkipVerify},
		log:       log,
	}
}

// Serve upgrades GET /ws. Browsers cannot set headers on a websocket, so the
// token may also arrive as ?token=.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	ws, err := websocket.Accept(c.Writer, c.Request, h.opts)
	if err != nil {
		h.log.Debug("websocket accept failed", zap.Error(err))
		return
	}

	// Presence cleanup must still run after the request context is canceled.
	ctx := context.WithoutCancel(c.Request.Context())
	session, err := h.lifecycle.Connect(ctx, token, NewWebsocketConn(ws))
	if err != nil {
		h.log.Info("connection rejected", zap.Error(err))
		return
	}
	defer h.lifecycle.Disconnect(ctx, session)

	err = h.lifecycle.Serve(c.Request.Context(), session)
	if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
		h.log.Debug("connection closed", zap.String("connId", session.ConnID), zap.Error(err))
	}
	_ = ws.Close(websocket.StatusNormalClosure, "")
}
