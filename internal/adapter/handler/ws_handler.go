package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CartMessage is pushed to a user's sockets whenever their cart changes.
type CartMessage struct {
	Type   string                  `json:"type"`
	Reason domain.CartChangeReason `json:"reason"`
	At     time.Time               `json:"at"`
}

type wsClient struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// CartHub keeps the open cart sockets per user and fans cart changes out to
// them. Feed it either by subscribing Notify on the event bus or, when several
// instances share Redis, by running Relay over the Redis cart stream.
type CartHub struct {
	verifier port.IdentityVerifier

	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{}
}

func NewCartHub(verifier port.IdentityVerifier) *CartHub {
	return &CartHub{
		verifier: verifier,
		clients:  make(map[string]map[*wsClient]struct{}),
	}
}

// Notify is a cart listener. Slow sockets that cannot keep up are dropped.
func (h *CartHub) Notify(_ context.Context, event domain.CartChanged) {
	data, err := json.Marshal(CartMessage{Type: "cart_changed", Reason: event.Reason, At: event.At})
	if err != nil {
		return
	}

	h.mu.RLock()
	var slow []*wsClient
	for c := range h.clients[event.UserID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c)
	}
}

// Relay notifies sockets of every event received until events is closed or
// ctx is done.
func (h *CartHub) Relay(ctx context.Context, events <-chan domain.CartChanged) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Notify(ctx, ev)
		}
	}
}

// Connections reports how many sockets userID has open.
func (h *CartHub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// ServeWS upgrades an authenticated request. Browsers cannot set headers on
// a websocket handshake, so ?access_token= is accepted as well.
func (h *CartHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if id.Anonymous() && h.verifier != nil {
		if token := r.URL.Query().Get("access_token"); token != "" {
			verified, err := h.verifier.Verify(r.Context(), token)
			if err != nil {
				code, reason := auth.Reject(err)
				writeJSON(w, code, ErrorResponse{Error: reason.Error()})
				return
			}
			id = verified
		}
	}
	if id.Anonymous() {
		writeError(w, domain.ErrAuthenticationRequired)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &wsClient{userID: id.UserID, conn: conn, send: make(chan []byte, wsSendBuffer)}
	h.add(c)
	slog.Debug("cart socket opened", "user", id.UserID)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *CartHub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*wsClient]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *CartHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// readLoop only watches for the peer going away; clients send nothing.
func (h *CartHub) readLoop(c *wsClient) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		slog.Debug("cart socket closed", "user", c.userID)
	}()

	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *CartHub) writeLoop(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
