package ws

import (
	"sync"
)

// Hub keeps client sets per observer group. Groups are the fan-out address
// space: "auction:<id>", "user:<id>" and "admin".
type Hub struct {
	rooms sync.Map // group key -> *room
}

func NewHub() *Hub { return &Hub{} }

// Broadcast is called by the Redis subscriber with the payload for a group.
func (h *Hub) Broadcast(group string, msg []byte) {
	if v, ok := h.rooms.Load(group); ok {
		v.(*room).broadcast(msg)
	}
}

func (h *Hub) Join(group string, c *clientConn) {
	r, _ := h.rooms.LoadOrStore(group, newRoom())
	r.(*room).add(c)
}

func (h *Hub) Leave(group string, c *clientConn) {
	if v, ok := h.rooms.Load(group); ok {
		v.(*room).remove(c)
	}
}
