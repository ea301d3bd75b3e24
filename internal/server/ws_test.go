package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dialWS(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWSEvent(t *testing.T, conn *websocket.Conn) syncEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err, "reading websocket message")
	var ev syncEvent
	require.NoError(t, json.Unmarshal(payload, &ev))
	return ev
}

func TestWebSocketSync(t *testing.T) {
	t.Run("sends connected event on open", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		conn := dialWS(t, env.httpSrv.URL)
		ev := readWSEvent(t, conn)
		assert.Equal(t, eventConnected, ev.Type)
	})

	t.Run("broadcasts accepted writes to all connections", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		connA := dialWS(t, env.httpSrv.URL)
		connB := dialWS(t, env.httpSrv.URL)
		require.Equal(t, eventConnected, readWSEvent(t, connA).Type)
		require.Equal(t, eventConnected, readWSEvent(t, connB).Type)

		resp := postJSON(t, env.httpSrv.URL+"/api/data", testSet())
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		for _, conn := range []*websocket.Conn{connA, connB} {
			ev := readWSEvent(t, conn)
			assert.Equal(t, eventMapsUpdated, ev.Type)
			assert.Equal(t, testSet(), ev.Data)
		}
	})

	t.Run("closing one connection does not affect another", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		connA := dialWS(t, env.httpSrv.URL)
		connB := dialWS(t, env.httpSrv.URL)
		require.Equal(t, eventConnected, readWSEvent(t, connA).Type)
		require.Equal(t, eventConnected, readWSEvent(t, connB).Type)

		connA.Close()
		time.Sleep(50 * time.Millisecond)

		resp := postJSON(t, env.httpSrv.URL+"/api/data", testSet())
		resp.Body.Close()

		ev := readWSEvent(t, connB)
		assert.Equal(t, eventMapsUpdated, ev.Type)
	})

	t.Run("hub disconnects clients when its subscription ends", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		h := newHub(zap.NewNop())
		sub, err := env.store.Subscribe(context.Background())
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			h.run(context.Background(), sub)
			close(done)
		}()

		c := &wsClient{hub: h, send: make(chan []byte, 1)}
		h.register <- c

		// Subscription teardown ends the hub loop; the client's send
		// channel must be closed so its write pump exits.
		require.NoError(t, sub.Close())

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("hub did not stop after its subscription ended")
		}

		select {
		case _, ok := <-c.send:
			assert.False(t, ok, "send channel should be closed")
		case <-time.After(2 * time.Second):
			t.Fatal("client send channel was not closed")
		}
	})

	t.Run("websocket and sse clients see the same update", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		conn := dialWS(t, env.httpSrv.URL)
		require.Equal(t, eventConnected, readWSEvent(t, conn).Type)
		stream := openSync(t, env.httpSrv.URL)
		require.Equal(t, eventConnected, stream.nextEvent(t, true).Type)

		resp := postJSON(t, env.httpSrv.URL+"/api/data", testSet())
		resp.Body.Close()

		wsEv := readWSEvent(t, conn)
		sseEv := stream.nextEvent(t, true)
		assert.Equal(t, wsEv.Data, sseEv.Data)
	})
}
