package presence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"help-from-founder-go/internal/db"
	"help-from-founder-go/internal/models"
)

const (
	writeWait     = 10 * time.Second
	sideEffectTTL = 5 * time.Second
	sendBuffer    = 64
	effectBuffer  = 1024
)

// Event is pushed to subscribers whenever a watched user's status changes,
// and returned by Status.
type Event struct {
	UserID   string     `json:"userId"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// UserStore is the part of the users repository the hub needs.
type UserStore interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdateLastSeen(ctx context.Context, userID string, at time.Time) error
}

// clientAction is a JSON message sent by a WebSocket client.
type clientAction struct {
	Action string `json:"action"`
	UserID string `json:"userId"`
}

// Client is one WebSocket connection of a signed-in user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type subscription struct {
	client *Client
	userID string
	on     bool
}

type delivery struct {
	client *Client
	data   []byte
}

// transition is a user going online or offline, applied to the tracker and
// the users store by the effects worker.
type transition struct {
	userID string
	online bool
}

// Hub owns every connection and the per-user watcher sets. All bookkeeping
// happens on the Run goroutine; storage I/O happens on a single effects worker
// so transitions of one user are applied in order.
type Hub struct {
	tracker Tracker
	users   UserStore
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	upgrader websocket.Upgrader

	clients     map[*Client]bool
	connections map[string]int
	watchers    map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	deliver    chan delivery
	broadcast  chan Event
	effects    chan transition
	done       chan struct{}
}

// NewHub creates a Hub. ttl is the lifetime of the online flag; connections
// are pinged often enough to refresh it. An empty allowedOrigins accepts any
// Origin header.
func NewHub(tracker Tracker, users UserStore, ttl time.Duration, allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		tracker:     tracker,
		users:       users,
		logger:      logger,
		ttl:         ttl,
		now:         time.Now,
		clients:     make(map[*Client]bool),
		connections: make(map[string]int),
		watchers:    make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		deliver:     make(chan delivery, 64),
		broadcast:   make(chan Event, 256),
		effects:     make(chan transition, effectBuffer),
		done:        make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

func (h *Hub) pingPeriod() time.Duration {
	return h.ttl * 9 / 10
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing
// every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	go h.applyEffects()
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			close(h.effects)
			return

		case c := <-h.register:
			h.clients[c] = true
			h.connections[c.userID]++
			if h.connections[c.userID] == 1 {
				h.enqueue(transition{userID: c.userID, online: true})
			}

		case c := <-h.unregister:
			if h.clients[c] {
				h.remove(c)
			}

		case s := <-h.subscribe:
			if !h.clients[s.client] {
				continue
			}
			if !s.on {
				h.unwatch(s.client, s.userID)
				continue
			}
			if h.watchers[s.userID] == nil {
				h.watchers[s.userID] = make(map[*Client]bool)
			}
			h.watchers[s.userID][s.client] = true
			go h.sendStatus(s.client, s.userID)

		case d := <-h.deliver:
			if h.clients[d.client] {
				h.push(d.client, d.data)
			}

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			for c := range h.watchers[ev.UserID] {
				h.push(c, data)
			}
		}
	}
}

// push drops a client whose buffer is full.
func (h *Hub) push(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.Warn("Dropping slow presence client", zap.String("userId", c.userID))
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	for uid, set := range h.watchers {
		if set[c] {
			h.unwatch(c, uid)
		}
	}
	h.connections[c.userID]--
	if h.connections[c.userID] <= 0 {
		delete(h.connections, c.userID)
		h.enqueue(transition{userID: c.userID})
	}
}

func (h *Hub) unwatch(c *Client, userID string) {
	if set, ok := h.watchers[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.watchers, userID)
		}
	}
}

// enqueue is called from the Run goroutine, so it must not block.
func (h *Hub) enqueue(t transition) {
	select {
	case h.effects <- t:
	default:
		h.logger.Warn("Presence effects queue full, transition dropped", zap.String("userId", t.userID), zap.Bool("online", t.online))
	}
}

// applyEffects runs until Run closes the effects channel. Events reach
// watchers only after the transition has been stored.
func (h *Hub) applyEffects() {
	for t := range h.effects {
		var ev Event
		if t.online {
			ev = h.markOnline(t.userID)
		} else {
			ev = h.markOffline(t.userID)
		}
		send(h.done, h.broadcast, ev)
	}
}

func (h *Hub) markOnline(userID string) Event {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTTL)
	defer cancel()
	if err := h.tracker.SetOnline(ctx, userID); err != nil {
		h.logger.Error("Failed to mark user online", zap.String("userId", userID), zap.Error(err))
	}
	return Event{UserID: userID, Online: true}
}

func (h *Hub) markOffline(userID string) Event {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTTL)
	defer cancel()
	if err := h.tracker.SetOffline(ctx, userID); err != nil {
		h.logger.Error("Failed to mark user offline", zap.String("userId", userID), zap.Error(err))
	}
	seen := h.now().UTC()
	if err := h.users.UpdateLastSeen(ctx, userID, seen); err != nil && !errors.Is(err, db.ErrNotFound) {
		h.logger.Error("Failed to persist lastSeen", zap.String("userId", userID), zap.Error(err))
	}
	return Event{UserID: userID, Online: false, LastSeen: &seen}
}

func (h *Hub) sendStatus(c *Client, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTTL)
	defer cancel()
	ev, err := h.Status(ctx, userID)
	if err != nil {
		h.logger.Warn("Presence lookup failed", zap.String("userId", userID), zap.Error(err))
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	send(h.done, h.deliver, delivery{client: c, data: data})
}

// send hands v to the Run goroutine unless the hub has stopped.
func send[T any](done <-chan struct{}, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-done:
		return false
	}
}

// Status reports whether userID is online and when they were last seen.
// Unknown users are reported offline without a lastSeen.
func (h *Hub) Status(ctx context.Context, userID string) (Event, error) {
	online, err := h.tracker.IsOnline(ctx, userID)
	if err != nil {
		return Event{}, err
	}
	ev := Event{UserID: userID, Online: online}
	u, err := h.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		ev.LastSeen = u.LastSeen
	case !errors.Is(err, db.ErrNotFound):
		return Event{}, err
	}
	return ev, nil
}

// refresh extends the online flag of an active connection.
func (h *Hub) refresh(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTTL)
	defer cancel()
	if err := h.tracker.SetOnline(ctx, userID); err != nil {
		h.logger.Warn("Failed to refresh presence", zap.String("userId", userID), zap.Error(err))
	}
}

// ServeWs upgrades the request and registers the connection for userID.
// Authentication happens before this is called.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
	}
	if !send(h.done, h.register, client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		send(c.hub.done, c.hub.unregister, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.ttl))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.ttl))
		c.hub.refresh(c.userID)
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("Presence connection closed", zap.String("userId", c.userID), zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.hub.ttl))

		var action clientAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Debug("Invalid presence message", zap.Error(err))
			continue
		}

		switch action.Action {
		case "subscribe", "unsubscribe":
			if action.UserID != "" {
				send(c.hub.done, c.hub.subscribe, subscription{client: c, userID: action.UserID, on: action.Action == "subscribe"})
			}
		case "ping":
			c.hub.refresh(c.userID)
		default:
			c.hub.logger.Debug("Unknown presence action", zap.String("action", action.Action))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
