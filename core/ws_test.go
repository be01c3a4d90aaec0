package core

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewDisplayHub(ctx, &wg, logger)

	connected := make(chan int, 1)
	disconnected := make(chan int, 1)
	hub.OnDisplayConnected(func(id int) { connected <- id })
	hub.OnDisplayDisconnected(func(id int) { disconnected <- id })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Connect(w, r); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.Nil(t, err)

	var id int
	select {
	case id = <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connect callback")
	}
	assert.Equal(t, 1, hub.Count())

	// server to display broadcast
	hub.Send(&Event{Type: "node_updated", Payload: json.RawMessage(`{"id":1}`)})

	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := client.ReadMessage()
	require.Nil(t, err)

	var received Event
	require.Nil(t, DecodeEvent(strings.NewReader(string(data)), &received))
	assert.Equal(t, "node_updated", received.Type)

	// display to server event, stamped with the connection id
	err = client.WriteMessage(websocket.TextMessage, []byte(`{"type":"viewing","payload":{"node_id":1}}`))
	require.Nil(t, err)

	select {
	case e := <-hub.Receive():
		assert.Equal(t, "viewing", e.Type)
		assert.Equal(t, id, e.Display)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for display event")
	}

	client.Close()

	select {
	case gone := <-disconnected:
		assert.Equal(t, id, gone)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for disconnect callback")
	}
	assert.Equal(t, 0, hub.Count())
}
