package stream

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans live tracking samples out to websocket watchers of a session.
// With a redis client it also bridges broadcasts across instances;
// published payloads carry the origin instance id so the subscribe loop
// can drop this instance's own messages instead of delivering them twice.
type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	SessionID string
	Send      chan []byte
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

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessionClients, ok := h.clients[client.SessionID]; ok {
		delete(sessionClients, client)
		if len(sessionClients) == 0 {
			delete(h.clients, client.SessionID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(sessionID string, payload []byte) {
	h.deliverLocal(sessionID, payload)

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(sessionID), h.envelope(payload)).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// deliverLocal sends to every watcher of the session. The lock is held
// across the sends: Unregister closes Send under the write lock, and the
// buffered send-with-default never blocks, so a racing disconnect cannot
// close the channel mid-send.
func (h *Hub) deliverLocal(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "trek:*:live")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		origin, payload := splitEnvelope(msg.Payload)
		if origin == h.id {
			// our own publish; local watchers already got it
			continue
		}
		h.deliverLocal(sessionIDFromChannel(msg.Channel), payload)
	}
}

func (h *Hub) envelope(payload []byte) []byte {
	return append([]byte(h.id+"|"), payload...)
}

func splitEnvelope(raw string) (origin string, payload []byte) {
	if i := strings.IndexByte(raw, '|'); i >= 0 {
		return raw[:i], []byte(raw[i+1:])
	}
	return "", []byte(raw)
}

func redisChannel(sessionID string) string {
	return "trek:" + sessionID + ":live"
}

func sessionIDFromChannel(channel string) string {
	trimmed := strings.TrimPrefix(channel, "trek:")
	return strings.TrimSuffix(trimmed, ":live")
}
