package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/locker-pass-manager/backend/internal/api/middleware"
	"github.com/locker-pass-manager/backend/internal/auth"
	ws "github.com/locker-pass-manager/backend/internal/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 65536
)

// tokenCheckPeriod is how often a connection's bearer token is re-validated.
var tokenCheckPeriod = 15 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketUpgrade returns a handler that upgrades HTTP connections to WebSocket.
// The connection is closed once the token it was opened with expires or is revoked.
func WebSocketUpgrade(hub *ws.Hub, tokens *auth.TokenRegistry, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := middleware.TokenFrom(r.Context())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnw("websocket upgrade failed", "error", err)
			return
		}

		client := ws.NewClient(hub)
		hub.Register(client)

		valid := func() bool {
			_, err := tokens.Authenticate(token)
			return err == nil
		}
		go writePump(conn, client, valid, logger)
		go readPump(conn, client, hub, logger)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func writePump(conn *websocket.Conn, client *ws.Client, valid func() bool, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(pingPeriod)
	check := time.NewTicker(tokenCheckPeriod)
	defer func() {
		ticker.Stop()
		check.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-check.C:
			if valid() {
				continue
			}
			logger.Debugw("closing websocket, token no longer valid")
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "token expired or revoked"),
				time.Now().Add(writeWait))
			return
		}
	}
}

// readPump feeds client commands to the client until the connection drops.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub, logger *zap.SugaredLogger) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debugw("websocket read error", "error", err)
			}
			break
		}

		client.Handle(message)
	}
}
