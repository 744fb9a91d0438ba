package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commutehq/corp-rides/pkg/logger"
)

func newHubClient(hub *Hub) *Client {
	return &Client{
		ID:     "test-client",
		UserID: "admin-1",
		Hub:    hub,
		Send:   make(chan []byte, 256),
		logger: logger.NewNop(),
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients", want)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(logger.NewNop())
	go hub.Run()

	client := newHubClient(hub)
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Broadcast(Event{Type: "ride_created", Data: map[string]string{"ride_id": "r1"}})

	select {
	case raw := <-client.Send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.Equal(t, "ride_created", event.Type)
	case <-time.After(time.Second):
		t.Fatal("no event delivered to client")
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(logger.NewNop())
	go hub.Run()

	client := newHubClient(hub)
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Unregister(client)
	waitForClients(t, hub, 0)

	// Send channel is closed on unregister
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHubBroadcast_FullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.NewNop())
	go hub.Run()

	client := newHubClient(hub)
	client.Send = make(chan []byte, 1)
	hub.Register(client)
	waitForClients(t, hub, 1)

	done := make(chan struct{})
	go func() {
		hub.Broadcast(Event{Type: "a"})
		hub.Broadcast(Event{Type: "b"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}
