package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", NewHandler(hub, zerolog.Nop()).HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		<-hub.done
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, hub *Hub, url string) *websocket.Conn {
	t.Helper()
	before := hub.ClientsCount(NotificationsGroup)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientsCount(NotificationsGroup) == before+1 },
		time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHub_PublishReachesEveryClient(t *testing.T) {
	hub, url := startHub(t)
	first := dial(t, hub, url)
	second := dial(t, hub, url)

	hub.Publish(EventVoteCast, "1 vote(s) cast", map[string]int{"voterId": 4})

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, EventVoteCast, msg.Type)
		assert.Equal(t, "1 vote(s) cast", msg.Message)
		assert.Equal(t, map[string]interface{}{"voterId": float64(4)}, msg.Payload)
	}
}

func TestHandler_RejectsCrossOriginBrowsers(t *testing.T) {
	hub, url := startHub(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientsCount(NotificationsGroup))

	host := strings.TrimPrefix(url, "ws://")
	host = host[:strings.Index(host, "/")]
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://" + host}})
	require.NoError(t, err)
	conn.Close()
}

func TestHub_EchoesToSenderOnly(t *testing.T) {
	hub, url := startHub(t)
	sender := dial(t, hub, url)
	other := dial(t, hub, url)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"message":"ping"}`)))
	msg := readMessage(t, sender)
	assert.Equal(t, EventEcho, msg.Type)
	assert.Equal(t, "ping", msg.Message)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("plain text")))
	assert.Equal(t, "plain text", readMessage(t, sender).Message)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "echo must not reach other clients")
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientsCount(NotificationsGroup) == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	// no Run loop: the queue fills and later events are dropped
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.Publish(EventStudentCreated, "x", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked")
	}
	assert.Len(t, hub.broadcast, cap(hub.broadcast))
}
