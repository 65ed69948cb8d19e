package ws

import (
	"encoding/json"
	"sync"

	"snapclash/logger"
)

// WSMessage is the wire envelope in both directions. Requests carry a seq the
// matching ack echoes back.
type WSMessage struct {
	Type string          `json:"type"`
	Seq  int64           `json:"seq,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hub tracks live connections and the subscriber set per room code, and
// implements game.Broadcaster on top of them. Delivery is best-effort: a dead
// or slow subscriber is skipped, never surfaced to the game.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	subs  map[string]map[string]struct{} // code -> conn ids
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*Conn),
		subs:  make(map[string]map[string]struct{}),
	}
}

func (h *Hub) add(c *Conn) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) drop(connID string) {
	h.mu.Lock()
	delete(h.conns, connID)
	for code, set := range h.subs {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.subs, code)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) Subscribe(connID, code string) {
	h.mu.Lock()
	set, ok := h.subs[code]
	if !ok {
		set = make(map[string]struct{})
		h.subs[code] = set
	}
	set[connID] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unsubscribe(connID, code string) {
	h.mu.Lock()
	if set, ok := h.subs[code]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.subs, code)
		}
	}
	h.mu.Unlock()
}

// Broadcast fans an event out to every subscriber of the room.
func (h *Hub) Broadcast(code, event string, payload any) {
	msg, err := encode(event, 0, payload)
	if err != nil {
		logger.Error("broadcast marshal failed event=%s: %v", event, err)
		return
	}

	h.mu.RLock()
	for connID := range h.subs[code] {
		if c, ok := h.conns[connID]; ok {
			c.enqueue(msg)
		}
	}
	h.mu.RUnlock()
}

func encode(event string, seq int64, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: event, Seq: seq, Data: data})
}
