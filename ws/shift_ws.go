package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/luiz3283/HELP-PRO/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// ShiftHub fans shift events out to every connected admin panel.
type ShiftHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan services.ShiftEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mu         sync.Mutex
	log        *zap.Logger
}

func NewShiftHub(log *zap.Logger) *ShiftHub {
	return &ShiftHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan services.ShiftEvent, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns every write to the connections. It returns when ctx is done and closes them all.
func (h *ShiftHub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if h.clients[conn] {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case evt := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(evt); err != nil {
					h.log.Warn("ws write failed", zap.Error(err))
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish never blocks the shift lifecycle; events are dropped when the feed is backed up.
func (h *ShiftHub) Publish(evt services.ShiftEvent) {
	select {
	case h.broadcast <- evt:
	default:
		h.log.Warn("ws feed full, event dropped", zap.String("type", string(evt.Type)), zap.String("log", evt.LogID))
	}
}

// Clients is the number of connected panels.
func (h *ShiftHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /admin/ws
func (h *ShiftHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}
	go h.listen(conn)
}

// listen drains the connection until the panel goes away. Panels only receive.
func (h *ShiftHub) listen(conn *websocket.Conn) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
