package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"chatrelay/config"
	"chatrelay/infrastructure"
	"chatrelay/internal/auth"
	"chatrelay/internal/chat"
	"chatrelay/internal/realtime"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	log    *zap.Logger
}

func NewServer(
	cfg *config.Config,
	tokens *infrastructure.Tokens,
	authHandler *auth.JSONHandler,
	chatHandler *chat.JSONHandler,
	wsHandler *realtime.Handler,
	log *zap.Logger,
) *Server {
	router := gin.New()
	router.Use(Recovery(log))
	router.Use(Logger(log))

	server := &Server{
		router: router,
		log:    log,
		http: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	server.setupRoutes(cfg.HTTP.RateLimitRPS, tokens, authHandler, chatHandler, wsHandler)
	return server
}

func (s *Server) setupRoutes(
	rps int,
	tokens *infrastructure.Tokens,
	authHandler *auth.JSONHandler,
	chatHandler *chat.JSONHandler,
	wsHandler *realtime.Handler,
) {
	// /ws carries its token in the query string.
	s.router.GET("/ws", wsHandler.Serve)

	limited := s.router.Group("/")
	limited.Use(RateLimitMiddleware(rps))
	limited.POST("/auth/google", authHandler.SignIn)

	authRoute := limited.Group("/")
	authRoute.Use(auth.Middleware(tokens))
	chatHandler.RegisterRoutes(authRoute)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.log.Info("http server listening", zap.String("addr", l.Addr().String()))
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Run() error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown stops accepting requests and waits for in-flight ones. Hijacked
// websocket connections are not tracked by net/http and must be closed by the
// hub.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
