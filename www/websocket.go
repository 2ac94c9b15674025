package www

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"

	"github.com/angas/riskplot-go/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var errClientClosed = errors.New("websocket client closed")

var errSendBufferFull = errors.New("client send buffer full")

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Client struct {
	logger  *slog.Logger
	hub     *Hub
	conn    *ws.Conn
	id      string
	name    string
	mu      sync.Mutex
	closed  bool
	send    chan []byte
	inbound chan ClientMessage
	reload  chan types.Dataset
	done    chan struct{}
}

func NewClient(hub *Hub, w http.ResponseWriter, r *http.Request, name string) (*Client, error) {

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &Client{
		logger:  hub.logger.With(slog.String("client", id)),
		hub:     hub,
		conn:    conn,
		id:      id,
		name:    name,
		send:    make(chan []byte, 256),
		inbound: make(chan ClientMessage, 16),
		reload:  make(chan types.Dataset, 1),
		done:    make(chan struct{}),
	}, nil
}

func (c *Client) ID() string {
	return c.id
}

// Enqueue queues message for the write pump without blocking.
func (c *Client) Enqueue(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- message:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump decodes client messages until the connection fails. It closes
// done on return, which stops the client's event loop.
func (c *Client) ReadPump() {
	defer func() {
		close(c.done)
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("web socket set read deadline failed", slog.Any("error", err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				c.logger.Warn("web socket read failed", slog.Any("error", err))
			}
			return
		}

		msg, err := DecodeClientMessage(data)
		if err != nil {
			c.logger.Warn("invalid client message", slog.Any("error", err))
			c.sendError(err)
			continue
		}

		select {
		case c.inbound <- msg:
		default:
			c.logger.Warn("client inbound buffer full, dropping message", slog.String("type", msg.Type))
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.hub.unregister(c)
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("web socket set write deadline failed", slog.Any("error", err))
				return
			}

			if !ok {
				if err := c.conn.WriteMessage(ws.CloseMessage, []byte{}); err != nil {
					c.logger.Warn("web socket close message failed", slog.Any("error", err))
				}
				return
			}

			// One message is one frame, a render batch is never split.
			if err := c.conn.WriteMessage(ws.TextMessage, message); err != nil {
				c.logger.Warn("web socket write failed", slog.Any("error", err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("web socket set write deadline failed", slog.Any("error", err))
				return
			}
			if err := c.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				c.logger.Warn("web socket ping message failed", slog.Any("error", err))
				return
			}
		}
	}
}

func (c *Client) sendError(err error) {
	if data, mErr := EncodeError(err); mErr == nil {
		_ = c.Enqueue(data)
	}
}

// Hub maintains the set of active clients and the dataset they render.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	clients    map[*Client]bool
	mutex      sync.Mutex
	logger     *slog.Logger
	dataset    types.Dataset
	done       chan struct{}
	// OnCount, if set, is called with the number of clients after every change.
	OnCount func(n int)
}

func NewHub(logger *slog.Logger, ds types.Dataset) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
		dataset:    ds,
		done:       make(chan struct{}),
	}
}

// Dataset returns the dataset new clients start with.
func (h *Hub) Dataset() types.Dataset {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.dataset
}

// Reload replaces the dataset and hands it to every connected client.
func (h *Hub) Reload(ds types.Dataset) {
	h.mutex.Lock()
	h.dataset = ds
	activeClients := h.snapshot()
	h.mutex.Unlock()

	for _, client := range activeClients {
		// Only the latest dataset matters, replace a pending one.
		select {
		case <-client.reload:
		default:
		}
		select {
		case client.reload <- ds:
		default:
			h.logger.Warn("client reload pending, dropping dataset", "clientID", client.id)
		}
	}
}

func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// snapshot must be called with the mutex held.
func (h *Hub) snapshot() []*Client {
	activeClients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		activeClients = append(activeClients, client)
	}
	return activeClients
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
		c.closeSend()
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	defer close(h.done)
	for {
		select {
		case client := <-h.Register:
			h.logger.Debug("registering client", "clientID", client.id, "clientName", client.name)

			h.mutex.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mutex.Unlock()
			h.count(n)

		case client := <-h.Unregister:
			h.mutex.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				client.closeSend()
			}
			n := len(h.clients)
			h.mutex.Unlock()
			if ok {
				h.logger.Debug("unregistering client", "clientID", client.id)
				h.count(n)
			}

		case <-done:
			h.mutex.Lock()
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			h.count(0)
			return
		}
	}
}

func (h *Hub) count(n int) {
	if h.OnCount != nil {
		h.OnCount(n)
	}
}
