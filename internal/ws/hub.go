package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is checked by the WebSocket CORS middleware
	},
}

// Client represents a connected subscriber watching one account's balance.
type Client struct {
	conn    *websocket.Conn
	account string
	send    chan []byte
}

// Hub maintains the set of active subscribers keyed by account
// ("pool" or "user:<id>").
type Hub struct {
	accounts map[string]map[*Client]bool
	lastTxn  map[string]int64
	mu       sync.RWMutex
}

// LedgerHub is the process-wide subscription hub.
var LedgerHub = NewHub()

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		accounts: make(map[string]map[*Client]bool),
		lastTxn:  make(map[string]int64),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.accounts[c.account] == nil {
		h.accounts[c.account] = make(map[*Client]bool)
	}
	h.accounts[c.account][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, exists := h.accounts[c.account]; exists {
		if subs[c] {
			delete(subs, c)
			close(c.send)
		}
		if len(subs) == 0 {
			delete(h.accounts, c.account)
		}
	}
}

// BroadcastToAccount sends a message to every subscriber of an account.
// Events arrive here in commit order for a given account and are appended to
// each client's send channel in that same order.
func (h *Hub) BroadcastToAccount(account string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, exists := h.accounts[account]; exists {
		for client := range subs {
			select {
			case client.send <- data:
			default:
				// Client's buffer is full
				log.Printf("[WS] send buffer full for subscriber of %s, dropping message", account)
			}
		}
	}
}

// BroadcastLedgerEvent delivers a committed transfer's event to the account's
// subscribers. Same-account transfers serialize on the wallet row lock and the
// journal id is assigned while that lock is held, so transaction ids for one
// account are monotone in commit order. Publishers race between commit and
// publish, though, so an event at or below the last delivered id for its
// account arrived late and is dropped; the newer event already carried the
// later balance.
func (h *Hub) BroadcastLedgerEvent(account string, txnID int64, message interface{}) {
	h.mu.Lock()
	if txnID <= h.lastTxn[account] {
		h.mu.Unlock()
		log.Printf("[WS] late event for %s (txn %d), dropping", account, txnID)
		return
	}
	h.lastTxn[account] = txnID
	h.mu.Unlock()

	h.BroadcastToAccount(account, message)
}

// SubscriberCount reports how many clients watch an account.
func (h *Hub) SubscriberCount(account string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.accounts[account])
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed: connection is being cleaned up.
				// Best-effort close frame; conn may already be gone.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for subscriber of %s: %v", c.account, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for subscriber of %s: %v", c.account, err)
				return
			}
		}
	}
}

// readPump drains the connection. Subscribers send nothing meaningful; the
// read loop exists to notice closes and keep control frames flowing.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// HandleSubscription upgrades the request and streams balance-change events
// for the given account until the client disconnects. The snapshot, if any,
// is sent first so the client starts from the current balance.
func HandleSubscription(w http.ResponseWriter, r *http.Request, account string, snapshot interface{}) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed for %s: %v", account, err)
		return
	}

	client := &Client{
		conn:    conn,
		account: account,
		send:    make(chan []byte, 64),
	}
	LedgerHub.register(client)
	log.Printf("[WS] subscriber connected for %s (total=%d)", account, LedgerHub.SubscriberCount(account))

	if snapshot != nil {
		if data, err := json.Marshal(snapshot); err == nil {
			client.send <- data
		}
	}

	go client.writePump()
	go client.readPump(LedgerHub)
}
