// Package ops serves the operational HTTP surface: health, room and user
// listings, Prometheus metrics, and the websocket gateway into the chat
// protocol.
package ops

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pich-reamrachna/MyChatApp/internal/chat"
)

type Server struct {
	logger *slog.Logger
	chat   *chat.Server
	srv    *http.Server
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The chat protocol has its own auth; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewServer(addr string, chatSrv *chat.Server, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger, chat: chatSrv}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/rooms", s.handleRooms)
	r.GET("/users", s.handleUsers)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", s.handleWebsocket)

	s.srv = &http.Server{Addr: addr, Handler: r}
	return s
}

func (s *Server) Start() {
	go func() {
		s.logger.Info("ops server started", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("ops server failed", "error", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.chat.Registry().RoomInfos()})
}

func (s *Server) handleUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": s.chat.Registry().OnlineUsers()})
}

// handleWebsocket upgrades the request and hands the connection to the
// chat server; the handler blocks for the life of the session.
func (s *Server) handleWebsocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	s.logger.Info("websocket client connected", "addr", ws.RemoteAddr().String())
	s.chat.ServeConn(chat.NewWSConn(ws))
}
