package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locker-pass-manager/backend/internal/locker"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func connect(t *testing.T, hub *Hub, subs ...int) *Client {
	t.Helper()
	c := NewClient(hub)
	c.Subscribe(subs...)
	want := hub.ClientCount() + 1
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == want }, time.Second, 5*time.Millisecond)
	return c
}

func receive(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case data, ok := <-c.Send():
		require.True(t, ok, "send channel closed")
		var out map[string]any
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send():
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishRespectsSubscriptions(t *testing.T) {
	hub := startHub(t)
	all := connect(t, hub)
	onlyTwo := connect(t, hub, 2)

	hub.Publish(1, []byte(`{"n":1}`))
	hub.Publish(2, []byte(`{"n":2}`))

	assert.EqualValues(t, 1, receive(t, all)["n"])
	assert.EqualValues(t, 2, receive(t, all)["n"])
	assert.EqualValues(t, 2, receive(t, onlyTwo)["n"])
	assertSilent(t, onlyTwo)
}

func TestBroadcastReachesEveryone(t *testing.T) {
	hub := startHub(t)
	a := connect(t, hub, 7)
	b := connect(t, hub)

	hub.Broadcast([]byte(`{"n":0}`))
	receive(t, a)
	receive(t, b)
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := startHub(t)
	c := connect(t, hub)

	hub.Unregister(c)
	select {
	case _, ok := <-c.Send():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Zero(t, hub.ClientCount())
}

func TestClientCommands(t *testing.T) {
	hub := startHub(t)
	c := connect(t, hub)

	c.Handle([]byte(`{"type":"ping"}`))
	assert.Equal(t, "pong", receive(t, c)["type"])

	c.Handle([]byte(`{"type":"subscribe","payload":{"locker_ids":[3,1]}}`))
	ack := receive(t, c)
	assert.Equal(t, "subscribe.ack", ack["type"])
	payload := ack["payload"].(map[string]any)
	assert.Equal(t, []any{float64(1), float64(3)}, payload["locker_ids"])
	assert.Equal(t, false, payload["all"])
	assert.True(t, c.Wants(3))
	assert.False(t, c.Wants(2))

	c.Handle([]byte(`{"type":"unsubscribe","payload":{}}`))
	ack = receive(t, c)
	assert.Equal(t, true, ack["payload"].(map[string]any)["all"])
	assert.True(t, c.Wants(2))

	c.Handle([]byte(`{"type":"launch"}`))
	errMsg := receive(t, c)
	assert.Equal(t, "error", errMsg["type"])
	assert.Equal(t, "unknown_type", errMsg["payload"].(map[string]any)["code"])

	c.Handle([]byte(`not json`))
	assert.Equal(t, "error", receive(t, c)["type"])
}

func TestBroadcasterTranslatesLockerEvents(t *testing.T) {
	hub := startHub(t)
	c := connect(t, hub, 4)

	l := locker.NewLocker(4, nil, "Hall / 4")
	require.NoError(t, l.AddCallback(NewBroadcaster(hub)))
	require.NoError(t, l.Activate())
	require.NoError(t, l.SetPassword(482913))

	state := receive(t, c)
	assert.Equal(t, "locker.state_changed", state["type"])
	sp := state["payload"].(map[string]any)
	assert.EqualValues(t, 4, sp["locker_id"])
	assert.Equal(t, "ACTIVE", sp["state"])

	pw := receive(t, c)
	assert.Equal(t, "locker.password_changed", pw["type"])
	pp := pw["payload"].(map[string]any)
	assert.EqualValues(t, 4, pp["locker_id"])
	assert.NotContains(t, pp, "code")
}

func TestBroadcasterResetReachesEveryClient(t *testing.T) {
	hub := startHub(t)
	subscribed := connect(t, hub, 4)
	idle := connect(t, hub)

	NewBroadcaster(hub).Reset()

	for _, c := range []*Client{subscribed, idle} {
		msg := receive(t, c)
		assert.Equal(t, "lockers.reset", msg["type"])
	}
}
