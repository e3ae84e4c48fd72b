// Package market pushes company and currency quote changes to WebSocket
// subscribers.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atharvakonge/cash-or-crash/internal/logger"
	"github.com/atharvakonge/cash-or-crash/internal/models"
)

// Message types sent to subscribers.
const (
	TypeSnapshot    = "snapshot"
	TypePriceUpdate = "price_update"
	TypeDividend    = "dividend"
)

const (
	sendBuffer   = 16
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// encode serializes frames. Tests replace it to exercise encoding failures.
var encode = json.Marshal

// Message is one frame on the feed.
type Message struct {
	Type       string                 `json:"type"`
	Companies  []models.Company       `json:"companies,omitempty"`
	Currencies []models.Currency      `json:"currencies,omitempty"`
	Company    *models.Company        `json:"company,omitempty"`
	Currency   *models.Currency       `json:"currency,omitempty"`
	Dividend   *models.DividendResult `json:"dividend,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Source lists the current market for the connect snapshot.
type Source interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListCurrencies(ctx context.Context) ([]models.Currency, error)
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks subscribers and fans messages out to them.
type Hub struct {
	source   Source
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub returns a hub. checkOrigin may be nil to accept every origin.
func NewHub(source Source, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		source:   source,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		clients:  make(map[*client]struct{}),
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request and streams messages until the client leaves.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshot(r.Context())
	if err != nil {
		logger.L().Error("market snapshot", zap.Error(err))
		http.Error(w, "market unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	c.send <- snapshot

	if !h.register(c) {
		conn.Close()
		return
	}
	logger.L().Debug("market subscriber connected", zap.Int("clients", h.Clients()))

	go h.writePump(c)
	h.readPump(c)
}

// snapshot is the encoded first frame: every company and currency.
func (h *Hub) snapshot(ctx context.Context) ([]byte, error) {
	companies, err := h.source.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	currencies, err := h.source.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	payload, err := encode(Message{
		Type:       TypeSnapshot,
		Companies:  companies,
		Currencies: currencies,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return payload, nil
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// drop removes c; the caller must hold h.mu.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.drop(c)
	h.mu.Unlock()
}

// readPump discards client frames and notices disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// broadcast queues m for every subscriber. Subscribers whose buffer is
// full are disconnected.
func (h *Hub) broadcast(m Message) {
	m.Timestamp = time.Now().UTC()
	payload, err := encode(m)
	if err != nil {
		logger.L().Error("marshal market message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			logger.L().Warn("dropping slow market subscriber")
			h.drop(c)
		}
	}
}

// PublishCompany announces a company quote change.
func (h *Hub) PublishCompany(c models.Company) {
	h.broadcast(Message{Type: TypePriceUpdate, Company: &c})
}

// PublishCurrency announces a currency rate change.
func (h *Hub) PublishCurrency(c models.Currency) {
	h.broadcast(Message{Type: TypePriceUpdate, Currency: &c})
}

// PublishDividend announces a completed distribution for company.
func (h *Hub) PublishDividend(company models.Company, res models.DividendResult) {
	h.broadcast(Message{Type: TypeDividend, Company: &company, Dividend: &res})
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.drop(c)
	}
}
