package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/chat"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
)

// WSHandler upgrades HTTP requests to the chat connection. It sits outside
// the session middleware: the socket authenticates itself with an auth event
// after connecting.
type WSHandler struct {
	gateway        *chat.Gateway
	allowedOrigins string
	connCfg        chat.WSConnConfig
}

// NewWSHandler creates the WebSocket handler. allowedOrigins is the same
// comma-separated list as CORS ("*" allows all).
func NewWSHandler(gateway *chat.Gateway, allowedOrigins string, connCfg chat.WSConnConfig) *WSHandler {
	return &WSHandler{gateway: gateway, allowedOrigins: strings.TrimSpace(allowedOrigins), connCfg: connCfg}
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	if h.allowedOrigins == "*" || h.allowedOrigins == "" {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	for _, o := range strings.Split(h.allowedOrigins, ",") {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return h.checkOrigin(r) },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("ws upgrade: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := chat.NewSession(h.gateway, chat.NewWSConn(conn, h.connCfg))
	session.Start(ctx, cancel)
	h.gateway.Register(session)
}
