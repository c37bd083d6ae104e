package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/chatstream"
	csjson "github.com/fwojciec/chatstream/json"
	"github.com/fwojciec/chatstream/memory"
	cswebsocket "github.com/fwojciec/chatstream/websocket"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) chatstream.MessageUpdate {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	u, err := csjson.UnmarshalUpdate(data)
	require.NoError(t, err)
	return u
}

func waitClients(t *testing.T, hub *cswebsocket.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHub(t *testing.T) {
	t.Parallel()

	t.Run("broadcasts every render in order", func(t *testing.T) {
		t.Parallel()
		hub := cswebsocket.NewHub()
		srv := httptest.NewServer(hub)
		defer srv.Close()

		a := dial(t, srv, nil)
		b := dial(t, srv, nil)
		waitClients(t, hub, 2)

		c := chatstream.NewCoalescer(chatstream.NewDispatcher(hub))
		cfg := chatstream.DefaultConfig()
		cfg.Key = "msg_1"
		_, err := c.Run(context.Background(), chatstream.FromSlice("he", "llo"), cfg)
		require.NoError(t, err)

		for _, conn := range []*websocket.Conn{a, b} {
			assert.Equal(t, "", read(t, conn).Text)
			assert.Equal(t, "he", read(t, conn).Text)
			assert.Equal(t, "hello", read(t, conn).Text)
			last := read(t, conn)
			assert.Equal(t, "hello", last.Text)
			assert.False(t, last.Partial)
			assert.Equal(t, "msg_1", last.Key)
		}
	})

	t.Run("replays the store to new clients", func(t *testing.T) {
		t.Parallel()
		store := memory.NewStore()
		d := chatstream.NewDispatcher(chatstream.SurfaceFunc(func(chatstream.MessageUpdate) error { return nil }), chatstream.WithStore(store))
		require.NoError(t, d.Render(chatstream.Message{Text: "hi", IsUser: true, Key: "msg_0"}))
		require.NoError(t, d.Render(chatstream.Message{Text: "hello", Key: "msg_1"}))

		hub := cswebsocket.NewHub(cswebsocket.WithStore(store))
		srv := httptest.NewServer(hub)
		defer srv.Close()

		conn := dial(t, srv, nil)
		first := read(t, conn)
		assert.Equal(t, "msg_0", first.Key)
		assert.True(t, first.IsUser)
		assert.Equal(t, "msg_1", read(t, conn).Key)
	})

	t.Run("unregisters clients that disconnect", func(t *testing.T) {
		t.Parallel()
		hub := cswebsocket.NewHub()
		srv := httptest.NewServer(hub)
		defer srv.Close()

		conn := dial(t, srv, nil)
		waitClients(t, hub, 1)
		require.NoError(t, conn.Close())
		waitClients(t, hub, 0)
		assert.NoError(t, hub.Render(chatstream.NewUpdate(chatstream.Message{Text: "x"})))
	})

	t.Run("rejects cross-origin browsers", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(cswebsocket.NewHub())
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
		require.Error(t, err)
		require.NotNil(t, resp)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("allows any origin when configured", func(t *testing.T) {
		t.Parallel()
		hub := cswebsocket.NewHub(cswebsocket.WithAllowAnyOrigin())
		srv := httptest.NewServer(hub)
		defer srv.Close()

		dial(t, srv, http.Header{"Origin": {"http://elsewhere.example"}})
		waitClients(t, hub, 1)
	})

	t.Run("close disconnects everyone", func(t *testing.T) {
		t.Parallel()
		hub := cswebsocket.NewHub()
		srv := httptest.NewServer(hub)
		defer srv.Close()

		conn := dial(t, srv, nil)
		waitClients(t, hub, 1)
		require.NoError(t, hub.Close())
		assert.Equal(t, 0, hub.Clients())

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
	})
}
