package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("trip-1")
	defer hub.Unregister(client)

	payload := []byte("hello")
	hub.Broadcast("trip-1", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "board:abc:events" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if tripIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected trip id")
	}
	if tripIDFromChannel("bad") != "" {
		t.Fatalf("expected empty trip id")
	}
}

func TestBroadcastDuringUnregister(t *testing.T) {
	// Broadcast sends while Unregister closes channels; run both hot
	// under -race to catch a send on a closed channel.
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			client := hub.Register("trip-1")
			hub.Unregister(client)
		}
	}()

	for i := 0; i < 200; i++ {
		hub.Broadcast("trip-1", []byte("tick"))
	}
	<-done
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("trip-2")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("trip-redis")
	defer hub.Unregister(ws)

	hub.Broadcast("trip-redis", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// A publish from another instance must reach local clients through
	// the pattern subscription.
	time.Sleep(20 * time.Millisecond)
	raw, _ := json.Marshal(envelope{Origin: "other-instance", Payload: []byte("pong")})
	if err := client.Publish(context.Background(), "board:trip-redis:events", raw).Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-ws.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("trip-bad")
	defer hub.Unregister(clientNode)

	hub.Broadcast("trip-bad", []byte("ping"))
}
