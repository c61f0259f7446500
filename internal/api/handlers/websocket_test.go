package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/locker-pass-manager/backend/internal/api/middleware"
	"github.com/locker-pass-manager/backend/internal/auth"
	ws "github.com/locker-pass-manager/backend/internal/websocket"
)

func TestWebSocketClosesOnRevokedToken(t *testing.T) {
	saved := tokenCheckPeriod
	tokenCheckPeriod = 20 * time.Millisecond
	t.Cleanup(func() { tokenCheckPeriod = saved })

	logger := zap.NewNop().Sugar()
	users := auth.NewDirectory(logger, auth.WithHasher(auth.BcryptHasher{Cost: bcrypt.MinCost}))
	id, err := users.CreateUser("ada@example.com", "s3cret-pass", false)
	require.NoError(t, err)
	token, err := users.Login("ada@example.com", "s3cret-pass")
	require.NoError(t, err)

	hub := ws.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	r := mux.NewRouter()
	r.Use(middleware.RequireToken(users.Tokens()))
	r.HandleFunc("/ws", WebSocketUpgrade(hub, users.Tokens(), logger))
	srv := httptest.NewServer(r)
	defer srv.Close()

	header := http.Header{"Authorization": {"Bearer " + token.Value()}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, users.Tokens().RemoveToken(id))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}
