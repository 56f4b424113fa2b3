package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

const writeWait = 5 * time.Second

// client guarda a conexão e o filtro de tipsters assinados (vazio = todos)
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	filter  map[string]struct{}
}

func (c *client) write(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// wants indica se o update interessa ao cliente
func (c *client) wants(u events.LedgerUpdate) bool {
	if len(c.filter) == 0 {
		return true
	}
	for name := range c.filter {
		if u.Touches(name) {
			return true
		}
	}
	return false
}

// Hub gerencia conexões WebSocket e repassa os updates do ledger
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	clients  map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		clients:  make(map[*client]struct{}),
	}
}

// Clients retorna o número de conexões ativas
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket.
// Sem subscribe o cliente recebe todos os updates; subscribe restringe a tipsters.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &client{conn: conn, filter: map[string]struct{}{}}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.Tipster != "" {
				h.mu.Lock()
				c.filter[msg.Tipster] = struct{}{}
				h.mu.Unlock()
			}
		case "unsubscribe":
			h.mu.Lock()
			delete(c.filter, msg.Tipster)
			h.mu.Unlock()
		case "ping":
			b, _ := json.Marshal(map[string]string{"type": "pong"})
			_ = c.write(b)
		}
	}

	// Remove a conexão ao desconectar
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Broadcast envia o update para todos os clientes interessados
func (h *Hub) Broadcast(u events.LedgerUpdate) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.wants(u) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(u)
	if err != nil {
		h.log.Error("ws marshal update", zap.Error(err))
		return
	}
	for _, c := range targets {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
		}
	}
}
