package hub

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// RegisterRoutes mounts the websocket endpoint that binds each dashboard
// connection to a hub subscriber. The read loop only watches for disconnect
// and answers "ping" heartbeats; telemetry flows one way.
func RegisterRoutes(r fiber.Router, h *Hub) {
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		sub := newConnSubscriber(c)
		h.Subscribe(sub)
		defer func() {
			h.Unsubscribe(sub)
			_ = sub.Close()
		}()

		for {
			mt, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			if mt == websocket.TextMessage && string(msg) == "ping" {
				if err := sub.Send([]byte("pong")); err != nil {
					break
				}
			}
		}
	}))
}

// connSubscriber adapts a websocket connection to the Subscriber interface.
// Writes are serialized: the pipeline driver and the heartbeat reply run on
// different goroutines.
type connSubscriber struct {
	id   string
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newConnSubscriber(conn *websocket.Conn) *connSubscriber {
	return &connSubscriber{id: uuid.NewString(), conn: conn}
}

func (s *connSubscriber) ID() string { return s.id }

func (s *connSubscriber) Send(msg []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, msg)
}

func (s *connSubscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}
