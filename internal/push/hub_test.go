package push

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
)

func testClient(hub *Hub, operatorID string) *Client {
	return &Client{
		hub:        hub,
		send:       make(chan []byte, 16),
		operatorID: operatorID,
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(logger.NewNop())
	go hub.Run()

	a := testClient(hub, "op-a")
	b := testClient(hub, "op-b")
	hub.register <- a
	hub.register <- b

	event := model.NewRefreshEvent(model.RefreshScopeConversation, "conv-1", "message_sent")
	hub.BroadcastRefresh(event)

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.send:
			var got model.RefreshEvent
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, model.RefreshScopeConversation, got.Scope)
			assert.Equal(t, "conv-1", got.ConversationID)
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive broadcast", c.operatorID)
		}
	}
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(logger.NewNop())
	go hub.Run()

	c := testClient(hub, "op-a")
	hub.register <- c
	hub.unregister <- c

	select {
	case _, ok := <-c.send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub(logger.NewNop())
	go hub.Run()

	slow := &Client{hub: hub, send: make(chan []byte), operatorID: "slow"}
	hub.register <- slow

	// Nothing reads slow.send, so the unbuffered channel rejects the
	// broadcast and the hub evicts the client.
	hub.BroadcastRefresh(model.NewRefreshEvent(model.RefreshScopeAll, "", "resync"))

	select {
	case _, ok := <-slow.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("slow consumer was not evicted")
	}
}
