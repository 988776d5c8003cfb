package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/reel/internal/playback/controller"
)

// EventType tags the websocket event feed.
type EventType string

const (
	// EventStateChange mirrors controller state transitions and seeks.
	EventStateChange EventType = "state_change"
	// EventTimeUpdate carries playback time once per render tick.
	EventTimeUpdate EventType = "time_update"
)

// Event is one message on the feed.
type Event struct {
	Type  EventType               `json:"type"`
	State *controller.StateChange `json:"state,omitempty"`
	Time  *float64                `json:"time,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	clientBacklog  = 64
	broadcastQueue = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The editor UI is served from its own origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans playback events out to websocket subscribers. A client that
// cannot keep up with the feed is dropped rather than allowed to stall
// the render loop.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	logger     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, broadcastQueue),
		logger:     log,
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.WithField("clients", len(h.clients)).Debug("Event client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case ev := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("Dropping slow event client")
				}
			}

		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*client]struct{})
			return
		}
	}
}

// Broadcast queues an event for all subscribers; it never blocks the
// caller. When the feed backs up the event is dropped.
func (h *Hub) Broadcast(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
	}
}

// handleEvents upgrades the connection and subscribes it to the feed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan Event, clientBacklog)}

	// Queue the snapshot before the hub learns about the client. Once
	// registered, only the hub may touch the channel, since it closes it
	// when dropping slow clients. This also guarantees new subscribers
	// see current state ahead of any broadcast.
	snapshot := s.controller.Snapshot()
	c.send <- Event{Type: EventStateChange, State: &snapshot}

	s.hub.register <- c

	go c.writePump()
	go c.readPump(s.hub)
}

func (c *client) writePump() {
	defer c.conn.Close()

	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains client messages so pings are processed, and tears
// the client down on disconnect.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
