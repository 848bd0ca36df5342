package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) (*WebSocketManager, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := NewWebSocketManager()
	r := gin.New()
	NewWebSocketHandler(m, opts).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		m.CloseAll()
		srv.Close()
	})
	return m, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServeWS_RegisterAndReceive(t *testing.T) {
	m, url := newTestServer(t, Options{})

	admin := dial(t, url)
	user := dial(t, url)
	require.Eventually(t, func() bool { return m.GetClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, admin.WriteMessage(websocket.TextMessage, []byte(`{"event":"register_admin","department":"Sales"}`)))
	require.NoError(t, user.WriteMessage(websocket.TextMessage, []byte(`{"event":"register_user","userId":"42"}`)))
	require.Eventually(t, func() bool { return m.RegisteredCount() == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, m.BroadcastToDepartment("Sales", []byte(`{"event":"new_user"}`)))
	assert.Equal(t, 1, m.BroadcastToUser(42, []byte(`{"event":"user_updated"}`)))

	_ = admin.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err := admin.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"new_user"}`, string(frame))

	_ = user.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err = user.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"user_updated"}`, string(frame))
}

func TestServeWS_MalformedMessageKeepsConnectionOpen(t *testing.T) {
	m, url := newTestServer(t, Options{})
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"bogus"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"register_admin","department":"All"}`)))

	require.Eventually(t, func() bool { return m.RegisteredCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, m.GetClientCount())
}

func TestServeWS_DisconnectRemovesClient(t *testing.T) {
	m, url := newTestServer(t, Options{})
	conn := dial(t, url)
	require.Eventually(t, func() bool { return m.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool { return m.GetClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestServeWS_RejectsDisallowedOrigin(t *testing.T) {
	_, url := newTestServer(t, Options{AllowedOrigins: []string{"https://console.example.com"}})

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://console.example.com/")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestClient_SendAfterCloseIsDropped(t *testing.T) {
	c := &Client{id: "x", send: make(chan []byte, 1)}

	assert.True(t, c.Send([]byte("a")))
	assert.False(t, c.Send([]byte("b")), "переполненный буфер")

	c.Close()
	c.Close()
	assert.False(t, c.Send([]byte("c")))
}
