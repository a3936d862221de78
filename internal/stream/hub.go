package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans board events out to websocket clients watching a trip. A
// redis pub/sub bridge carries events between instances; without redis
// the hub still serves local clients.
type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

// envelope tags published events with the sender so an instance does
// not re-deliver its own broadcasts.
type envelope struct {
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

type Client struct {
	TripID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(tripID string) *Client {
	client := &Client{
		TripID: tripID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[tripID] == nil {
		h.clients[tripID] = map[*Client]struct{}{}
	}
	h.clients[tripID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tripClients, ok := h.clients[client.TripID]; ok {
		delete(tripClients, client)
		if len(tripClients) == 0 {
			delete(h.clients, client.TripID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(tripID string, payload []byte) {
	h.deliver(tripID, payload)

	if h.redis != nil {
		raw, err := json.Marshal(envelope{Origin: h.id, Payload: payload})
		if err != nil {
			return
		}
		if err := h.redis.Publish(context.Background(), redisChannel(tripID), raw).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) deliver(tripID string, payload []byte) {
	// Hold the lock across the sends: Unregister closes Send channels,
	// and a send on a closed channel panics.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[tripID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "board:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Origin == h.id {
			continue
		}
		h.deliver(tripIDFromChannel(msg.Channel), env.Payload)
	}
}

func redisChannel(tripID string) string {
	return "board:" + tripID + ":events"
}

func tripIDFromChannel(ch string) string {
	// board:{trip}:events
	const prefix = "board:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
