package server

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"zkmsg/internal/metrics"
	"zkmsg/internal/model"
	"zkmsg/internal/service/redis"
	"zkmsg/internal/utils/log"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

type (
	// Hub pushes notifications to connected participants and queues them for
	// participants that are offline. One connection per participant.
	Hub struct {
		mu       sync.Mutex
		mapper   map[string]*client
		queue    redis.Queue
		upgrader websocket.Upgrader
	}

	client struct {
		mu   sync.Mutex
		conn *websocket.Conn
	}
)

func NewHub(queue redis.Queue, allowedOrigins []string) *Hub {
	return &Hub{
		mapper: make(map[string]*client),
		queue:  queue,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Notify delivers n to its recipient if connected, otherwise queues it.
func (h *Hub) Notify(ctx context.Context, n *model.Notification) error {
	h.mu.Lock()
	c, ok := h.mapper[n.Recipient]
	h.mu.Unlock()

	if ok {
		if err := c.send(n); err == nil {
			return nil
		}
		log.Debug("push failed, queueing", zap.String("participant", n.Recipient))
	}
	return h.queue.Push(ctx, n.Recipient, n)
}

func (h *Hub) HandleWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participant := r.URL.Query().Get("participant")
		if participant == "" {
			http.Error(w, "participant cannot be empty", http.StatusBadRequest)
			return
		}

		h.mu.Lock()
		_, dup := h.mapper[participant]
		h.mu.Unlock()
		if dup {
			http.Error(w, "participant already connected", http.StatusConflict)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		c := &client{conn: conn}
		h.mu.Lock()
		if _, dup := h.mapper[participant]; dup {
			h.mu.Unlock()
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "participant already connected"),
				time.Now().Add(writeWait))
			conn.Close()
			return
		}
		h.mapper[participant] = c
		h.mu.Unlock()
		metrics.ConnectedClients.Inc()

		go h.readLoop(participant, c)
		if err := h.forwardQueued(context.Background(), participant, c); err != nil {
			log.Error("forward queued notifications failed", zap.String("participant", participant), zap.Error(err))
		}
	}
}

// readLoop only watches for the connection closing; clients do not send.
func (h *Hub) readLoop(participant string, c *client) {
	defer h.remove(participant, c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			log.Debug("websocket closed", zap.String("participant", participant), zap.Error(err))
			return
		}
	}
}

func (h *Hub) remove(participant string, c *client) {
	h.mu.Lock()
	if h.mapper[participant] == c {
		delete(h.mapper, participant)
		metrics.ConnectedClients.Dec()
	}
	h.mu.Unlock()
	c.conn.Close()
}

// forwardQueued drains the offline queue to c. Notifications that cannot be
// written go back on the queue.
func (h *Hub) forwardQueued(ctx context.Context, participant string, c *client) error {
	pending, err := h.queue.Drain(ctx, participant)
	if err != nil {
		return err
	}
	for i, n := range pending {
		if err := c.send(n); err != nil {
			return h.queue.Push(ctx, participant, pending[i:]...)
		}
	}
	return nil
}

// Connected reports whether participant has an open connection.
func (h *Hub) Connected(participant string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.mapper[participant]
	return ok
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.mapper))
	for _, c := range h.mapper {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		c.mu.Unlock()
		c.conn.Close()
	}
}
