package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kundali-lab/internal/kundali"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 16

	defaultStreamInterval = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamMessage is the envelope pushed to stream clients.
type streamMessage struct {
	Type     string            `json:"type"`
	Transits *kundali.Transits `json:"transits"`
}

// TransitStream pushes a transit snapshot to every connected websocket
// client on each tick.
type TransitStream struct {
	svc      *kundali.Service
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewTransitStream creates a stream ticking every interval.
func NewTransitStream(svc *kundali.Service, interval time.Duration, logger *zap.Logger) *TransitStream {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitStream{
		svc:      svc,
		interval: interval,
		now:      time.Now,
		logger:   logger,
		clients:  make(map[*streamClient]struct{}),
	}
}

// Run broadcasts until ctx is cancelled, then disconnects all clients.
func (t *TransitStream) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			for c := range t.clients {
				t.removeLocked(c)
			}
			t.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			if t.Clients() == 0 {
				continue
			}
			msg, err := t.message()
			if err != nil {
				t.logger.Warn("transit stream snapshot", zap.Error(err))
				continue
			}
			t.broadcast(msg)
		}
	}
}

// Clients returns the number of connected clients.
func (t *TransitStream) Clients() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

// HandleWS upgrades the request and sends the current snapshot immediately.
// GET /ws/transits
func (t *TransitStream) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, sendBufferSize)}
	if msg, err := t.message(); err == nil {
		c.send <- msg
	}

	t.mu.Lock()
	t.clients[c] = struct{}{}
	n := len(t.clients)
	t.mu.Unlock()
	t.svc.Metrics().TransitStreamClients.Inc()
	t.logger.Info("stream client connected", zap.Int("clients", n))

	go t.writePump(c)
	go t.readPump(c)
}

func (t *TransitStream) message() ([]byte, error) {
	tr, err := t.svc.Transits(t.now(), "")
	if err != nil {
		return nil, err
	}
	return json.Marshal(streamMessage{Type: "transits", Transits: tr})
}

func (t *TransitStream) broadcast(msg []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for c := range t.clients {
		select {
		case c.send <- msg:
		default:
			t.logger.Warn("dropping slow stream client")
			t.removeLocked(c)
		}
	}
}

func (t *TransitStream) remove(c *streamClient) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(c)
}

func (t *TransitStream) removeLocked(c *streamClient) {
	if _, ok := t.clients[c]; !ok {
		return
	}
	delete(t.clients, c)
	close(c.send)
	t.svc.Metrics().TransitStreamClients.Dec()
}

// readPump discards client frames; it only keeps the read deadline moving.
func (t *TransitStream) readPump(c *streamClient) {
	defer func() {
		t.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.logger.Debug("stream client closed", zap.Error(err))
			}
			return
		}
	}
}

func (t *TransitStream) writePump(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
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
