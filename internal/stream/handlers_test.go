package stream

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func TestStreamHandlersUpgradeRequired(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), NewHub(nil))

	req := httptest.NewRequest(http.MethodGet, "/stream/board/trip-1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode == http.StatusOK {
		t.Fatalf("expected non-200 for non-websocket request")
	}
}

func TestStreamHandlersWebsocketBroadcast(t *testing.T) {
	hub := NewHub(nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	wsURL := "ws://" + ln.Addr().String() + "/stream/board/trip-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	hub.Broadcast("trip-1", []byte(`{"type":"card_moved"}`))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(msg) != `{"type":"card_moved"}` {
		t.Fatalf("unexpected message")
	}
}

func TestStreamHandlersWebsocketWriteError(t *testing.T) {
	hub := NewHub(nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	defer ln.Close()

	go func() {
		_ = app.Listener(ln)
	}()
	defer func() { _ = app.Shutdown() }()

	wsURL := "ws://" + ln.Addr().String() + "/stream/board/trip-2"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	conn.Close()

	hub.Broadcast("trip-2", []byte("ping"))
	time.Sleep(20 * time.Millisecond)
}
