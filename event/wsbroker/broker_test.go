package wsbroker

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/event"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/registry"
)

func dialTestBroker(t *testing.T, broker *Broker) (*httptest.Server, *websocket.Conn) {
	t.Helper()

	server := httptest.NewServer(broker)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return server, conn
}

func waitForClients(t *testing.T, broker *Broker, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for broker.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients, have %d", want, broker.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBrokerBroadcastsEvents(t *testing.T) {
	broker := NewBroker(nil, nil)
	defer broker.Stop()

	server, conn := dialTestBroker(t, broker)
	defer server.Close()
	defer conn.Close()

	waitForClients(t, broker, 1)

	sent := event.NewPublished(registry.NodeType{
		NodeTypeID: "atomic.echo",
		Version:    "1.0.0",
		Kind:       registry.KindAtomic,
	})
	broker.Notify(sent)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got event.Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, event.TypePublished, got.Type)
	assert.Equal(t, "atomic.echo", got.NodeTypeID)
	assert.Equal(t, "1.0.0", got.Version)
}

func TestBrokerMultipleClients(t *testing.T) {
	broker := NewBroker(nil, nil)
	defer broker.Stop()

	server, first := dialTestBroker(t, broker)
	defer server.Close()
	defer first.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	second, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer second.Close()

	waitForClients(t, broker, 2)

	broker.Notify(event.NewPublished(registry.NodeType{NodeTypeID: "a", Version: "1.0"}))

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		assert.NoError(t, err)
	}
}

func TestBrokerClientDisconnect(t *testing.T) {
	broker := NewBroker(nil, nil)
	defer broker.Stop()

	server, conn := dialTestBroker(t, broker)
	defer server.Close()

	waitForClients(t, broker, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, broker, 0)

	// Broadcasting with no clients must not panic
	broker.Notify(event.NewPublished(registry.NodeType{NodeTypeID: "a", Version: "1.0"}))
}

func TestBrokerStopRejectsNewClients(t *testing.T) {
	broker := NewBroker(nil, nil)

	server, conn := dialTestBroker(t, broker)
	defer server.Close()
	defer conn.Close()

	waitForClients(t, broker, 1)

	broker.Stop()
	assert.Equal(t, 0, broker.ClientCount())

	// Stop is idempotent
	broker.Stop()
}
