package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const broadcastChannel = "telemetry:broadcast"

// Subscriber is one live outbound channel. Send reports delivery failure
// synchronously; the hub prunes a subscriber on its first failed send.
type Subscriber interface {
	ID() string
	Send(msg []byte) error
	Close() error
}

// Hub relays each published message to every live subscriber. It holds no
// telemetry history: a late subscriber catches up through the session
// store's current-data endpoint, not through the hub. With a Redis client
// attached, every broadcast is mirrored over pub/sub so additional ground
// station instances relay the same stream.
type Hub struct {
	redis    *redis.Client
	instance string

	mu   sync.RWMutex
	subs map[Subscriber]struct{}
}

func New(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:    redisClient,
		instance: uuid.NewString(),
		subs:     map[Subscriber]struct{}{},
	}
	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Subscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
	log.Printf("subscriber %s connected, total: %d", sub.ID(), len(h.subs))
}

func (h *Hub) Unsubscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	log.Printf("subscriber %s disconnected, total: %d", sub.ID(), len(h.subs))
}

// Count reports the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers msg to every current subscriber. Failed subscribers are
// removed after the fan-out pass completes and never see another publish.
func (h *Hub) Publish(msg []byte) {
	h.deliver(msg)

	if h.redis != nil {
		payload := append([]byte(h.instance+"|"), msg...)
		if err := h.redis.Publish(context.Background(), broadcastChannel, payload).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) deliver(msg []byte) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	var failed []Subscriber
	for _, sub := range subs {
		if err := sub.Send(msg); err != nil {
			log.Printf("send to subscriber %s failed, pruning: %v", sub.ID(), err)
			failed = append(failed, sub)
		}
	}
	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	for _, sub := range failed {
		delete(h.subs, sub)
	}
	h.mu.Unlock()
	for _, sub := range failed {
		_ = sub.Close()
	}
}

// ResetSignal tells subscribers to discard locally buffered history.
// Takeoff fields are null when the reset came from an end-flight save.
type ResetSignal struct {
	Type          string     `json:"type"`
	TakeoffOffset *float64   `json:"takeoff_offset"`
	TakeoffTime   *time.Time `json:"takeoff_time"`
}

// PublishReset broadcasts a reset signal to every subscriber.
func (h *Hub) PublishReset(takeoffOffset *float64, takeoffTime *time.Time) {
	msg, err := json.Marshal(ResetSignal{
		Type:          "clear",
		TakeoffOffset: takeoffOffset,
		TakeoffTime:   takeoffTime,
	})
	if err != nil {
		log.Printf("marshal reset signal: %v", err)
		return
	}
	h.Publish(msg)
}

// CloseAll closes every subscriber, best-effort. Used at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subs := make([]Subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = map[Subscriber]struct{}{}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			log.Printf("closing subscriber %s: %v", sub.ID(), err)
		}
	}
}

// subscribeRedis forwards broadcasts published by other instances to local
// subscribers. Messages carry the publishing instance's id so an instance
// never re-delivers its own broadcast.
func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, broadcastChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		instance, payload, ok := splitEnvelope([]byte(msg.Payload))
		if !ok {
			log.Printf("malformed relay payload on %s", msg.Channel)
			continue
		}
		if instance == h.instance {
			continue
		}
		h.deliver(payload)
	}
}

func splitEnvelope(payload []byte) (instance string, msg []byte, ok bool) {
	i := bytes.IndexByte(payload, '|')
	if i < 0 {
		return "", nil, false
	}
	return string(payload[:i]), payload[i+1:], true
}
