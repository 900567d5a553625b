// Package stream pushes receipt entries to websocket subscribers of an auction.
package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"reverse-auction/internal/models"
	"reverse-auction/services/auction/helpers"
	"reverse-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	sendBufferSize      = 256
	broadcastBufferSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ReceiptSource serves the recorded receipt of an auction.
type ReceiptSource interface {
	Receipt(auctionID string) ([]models.ReceiptEntry, error)
}

type client struct {
	auctionID string
	conn      *websocket.Conn
	send      chan models.ReceiptEntry
}

// Hub fans committed receipt entries out to the clients watching each auction.
// A client that cannot keep up is disconnected rather than slowing the hub.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[*client]struct{} // key: auctionID
	broadcast chan models.ReceiptEntry
	closed    bool
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]map[*client]struct{}),
		broadcast: make(chan models.ReceiptEntry, broadcastBufferSize),
	}
}

// Publish queues an entry for delivery. It never blocks the caller. When the queue
// is full the entry is dropped and the auction's clients are disconnected, so they
// reconnect and pick it up from the backlog.
func (h *Hub) Publish(entry models.ReceiptEntry) {
	select {
	case h.broadcast <- entry:
	default:
		evicted := h.evict(entry.AuctionID)
		utils.Warn("stream: broadcast queue full, dropping entry", map[string]any{
			"auction_id": entry.AuctionID,
			"seq":        entry.Seq,
			"evicted":    evicted,
		})
	}
}

// Run delivers queued entries until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.Close()
			return nil
		case entry := <-h.broadcast:
			h.dispatch(entry)
		}
	}
}

// Close disconnects all clients and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, id)
	}
}

// Clients returns how many clients watch auctionID.
func (h *Hub) Clients(auctionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[auctionID])
}

func (h *Hub) dispatch(entry models.ReceiptEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[entry.AuctionID] {
		select {
		case c.send <- entry:
		default:
			h.removeLocked(c)
			utils.Warn("stream: evicted slow client", map[string]any{"auction_id": entry.AuctionID, "seq": entry.Seq})
		}
	}
}

// evict disconnects every client of auctionID and returns how many there were.
func (h *Hub) evict(auctionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.clients[auctionID]
	n := len(set)
	for c := range set {
		h.removeLocked(c)
	}
	return n
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	set, ok := h.clients[c.auctionID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.auctionID] = set
	}
	set[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	set, ok := h.clients[c.auctionID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.auctionID)
	}
}

// ServeWS handles GET /auctions/:auction_id/stream. The client first receives the
// receipt recorded so far, then every new entry as it is committed.
func (h *Hub) ServeWS(source ReceiptSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		auctionID := c.Param("auction_id")
		if _, err := source.Receipt(auctionID); err != nil {
			status, message := helpers.MapErrorToHTTP(err)
			utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.Warn("stream: upgrade failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
			return
		}

		cl := &client{auctionID: auctionID, conn: conn, send: make(chan models.ReceiptEntry, sendBufferSize)}
		if !h.register(cl) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
			_ = conn.Close()
			return
		}

		// Registered before the snapshot so nothing committed in between is missed.
		backlog, err := source.Receipt(auctionID)
		if err != nil {
			h.unregister(cl)
			_ = conn.Close()
			return
		}

		utils.Debug("stream: client connected", map[string]any{"auction_id": auctionID, "backlog": len(backlog)})
		go h.writePump(cl, backlog)
		go h.readPump(cl)
	}
}

// readPump only services control frames and notices the peer going away.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Debug("stream: unexpected close", map[string]any{"auction_id": c.auctionID, "error": err.Error()})
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client, backlog []models.ReceiptEntry) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	var lastSeq int64
	for _, e := range backlog {
		if err := h.write(c, e); err != nil {
			return
		}
		lastSeq = e.Seq
	}

	for {
		select {
		case e, ok := <-c.send:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// already sent as part of the backlog
			if e.Seq <= lastSeq {
				continue
			}
			if e.Seq != lastSeq+1 {
				utils.Warn("stream: gap in receipt, closing client", map[string]any{
					"auction_id": c.auctionID,
					"want_seq":   lastSeq + 1,
					"got_seq":    e.Seq,
				})
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "missed entries, reconnect"), time.Now().Add(writeWait))
				return
			}
			if err := h.write(c, e); err != nil {
				return
			}
			lastSeq = e.Seq
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(c *client, e models.ReceiptEntry) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(e)
}
