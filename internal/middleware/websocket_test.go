package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHub(nil)
	go h.Run()
	r := gin.New()
	r.GET("/ws", h.HandleWebSocket())
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		h.Stop()
		srv.Close()
	})
	return h, srv
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func waitClientCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.GetClientCount() != want && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := h.GetClientCount(); got != want {
		t.Fatalf("client count = %d, want %d", got, want)
	}
}

func TestHubBroadcastReachesClient(t *testing.T) {
	h, srv := newHubServer(t)
	conn := dialHub(t, srv)
	defer conn.Close()
	waitClientCount(t, h, 1)

	h.Broadcast([]byte(`{"ok":true}`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(msg) != `{"ok":true}` {
		t.Fatalf("unexpected frame: %s", msg)
	}
}

func TestHubRemovesDeadClientDuringBroadcast(t *testing.T) {
	h, srv := newHubServer(t)
	conn := dialHub(t, srv)
	waitClientCount(t, h, 1)
	conn.Close()

	// Count readers race the broadcast removal path; run with -race to
	// verify failed writes drop clients under the write lock.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_ = h.GetClientCount()
		}
	}()
	deadline := time.Now().Add(2 * time.Second)
	for h.GetClientCount() > 0 && time.Now().Before(deadline) {
		h.Broadcast([]byte("ping"))
		time.Sleep(5 * time.Millisecond)
	}
	<-done

	waitClientCount(t, h, 0)
}

func TestHubStopUnblocksBroadcast(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	h.Stop()
	// Second stop is a no-op.
	h.Stop()

	done := make(chan struct{})
	go func() {
		h.Broadcast([]byte("discarded"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked after Stop")
	}
}
