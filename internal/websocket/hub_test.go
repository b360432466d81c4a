package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID string) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 8)}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case payload := <-c.Send:
		var event Event
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected event: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

// Events only reach connections owned by the target user; all of that user's
// connections get a copy.
func TestBroadcastToUserRouting(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice1 := newTestClient("alice")
	alice2 := newTestClient("alice")
	bob := newTestClient("bob")
	hub.Register <- alice1
	hub.Register <- alice2
	hub.Register <- bob

	hub.BroadcastToUser("alice", EventTaskCreated, map[string]string{"id": "t1"})

	for _, c := range []*Client{alice1, alice2} {
		event := receive(t, c)
		assert.Equal(t, EventTaskCreated, event.Event)

		data, ok := event.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "t1", data["id"])

		_, err := time.Parse(time.RFC3339, event.Timestamp)
		assert.NoError(t, err)
	}
	assertSilent(t, bob)
}

func TestBroadcastAfterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient("alice")
	hub.Register <- client
	hub.Unregister <- client

	// Channel is closed by the hub on unregister
	select {
	case _, open := <-client.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	// Must not panic with no remaining connections
	hub.BroadcastToUser("alice", EventTaskDeleted, map[string]string{"id": "t1"})
}

func TestBroadcastEventTypes(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient("u1")
	hub.Register <- client

	for _, eventType := range []string{EventTaskCreated, EventTaskUpdated, EventTaskDeleted} {
		hub.BroadcastToUser("u1", eventType, nil)
		event := receive(t, client)
		assert.Equal(t, eventType, event.Event)
	}
}
