package ws

import (
	"testing"
	"time"

	"github.com/chainspan/chainspan/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubFanOut(t *testing.T) {
	events := make(chan *trace.Node, 4)
	hub := NewHub(events, zap.NewNop())

	_, client := hub.register()
	require.Equal(t, 1, hub.ClientCount())

	events <- &trace.Node{ID: "node_a", Layer: trace.L1}

	select {
	case event := <-client:
		assert.Equal(t, "span_finished", event.Type)
		assert.Equal(t, "node_a", event.Node.ID)
	case <-time.After(time.Second):
		t.Fatal("expected the event to reach the client")
	}
}

func TestHubUnregister(t *testing.T) {
	events := make(chan *trace.Node)
	hub := NewHub(events, zap.NewNop())

	clientID, client := hub.register()
	hub.unregister(clientID)
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-client
	assert.False(t, open, "unregistered client channel should be closed")
}

func TestHubStopsWhenStreamCloses(t *testing.T) {
	events := make(chan *trace.Node)
	hub := NewHub(events, zap.NewNop())

	_, client := hub.register()
	close(events)

	select {
	case _, open := <-client:
		assert.False(t, open, "clients are closed when the stream ends")
	case <-time.After(time.Second):
		t.Fatal("expected client channel to close")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubDropsWhenClientSlow(t *testing.T) {
	events := make(chan *trace.Node, 8)
	hub := NewHub(events, zap.NewNop())

	_, client := hub.register()

	// Overflow the client buffer without draining it.
	for i := 0; i < clientBuffer+8; i++ {
		events <- &trace.Node{ID: "node_x", Layer: trace.L1}
	}

	deadline := time.After(2 * time.Second)
	for len(events) > 0 {
		select {
		case <-deadline:
			t.Fatal("fan-out should never block on a slow client")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	assert.LessOrEqual(t, len(client), clientBuffer)
}
