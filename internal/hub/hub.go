// Package hub fans chat frames out to live subscribers of a room.
package hub

import (
	"context"
	"sync"
	"time"
)

const (
	FrameConnected = "connection_established"
	FrameMessage   = "message"
	FrameError     = "error"
)

type Frame struct {
	Type       string     `json:"type"`
	Message    string     `json:"message,omitempty"`
	ID         uint       `json:"id,omitempty"`
	RoomID     uint       `json:"room_id,omitempty"`
	SenderType string     `json:"sender_type,omitempty"`
	SenderName string     `json:"sender_name,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// Hub is a registry of subscribers keyed by room id.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uint]map[*Subscription]struct{}
	buffer int

	// OnJoin and OnLeave, when set, run after membership changes with the new member count.
	OnJoin  func(roomID uint, members int)
	OnLeave func(roomID uint, members int)
}

func New(buffer int) *Hub {
	if buffer < 1 {
		buffer = 16
	}
	return &Hub{rooms: make(map[uint]map[*Subscription]struct{}), buffer: buffer}
}

type Subscription struct {
	RoomID uint
	C      <-chan Frame

	ch   chan Frame
	hub  *Hub
	once sync.Once
}

// Close leaves the room. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.leave(s) })
}

func (h *Hub) Join(roomID uint) *Subscription {
	ch := make(chan Frame, h.buffer)
	s := &Subscription{RoomID: roomID, C: ch, ch: ch, hub: h}

	h.mu.Lock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Subscription]struct{})
		h.rooms[roomID] = members
	}
	members[s] = struct{}{}
	n := len(members)
	h.mu.Unlock()

	if h.OnJoin != nil {
		h.OnJoin(roomID, n)
	}
	return s
}

func (h *Hub) leave(s *Subscription) {
	h.mu.Lock()
	members := h.rooms[s.RoomID]
	delete(members, s)
	n := len(members)
	if n == 0 {
		delete(h.rooms, s.RoomID)
	}
	close(s.ch)
	h.mu.Unlock()

	if h.OnLeave != nil {
		h.OnLeave(s.RoomID, n)
	}
}

// Publish delivers f to every subscriber of roomID without blocking.
// Subscribers whose buffer is full miss the frame. It returns the number delivered.
func (h *Hub) Publish(roomID uint, f Frame) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.rooms[roomID] {
		select {
		case s.ch <- f:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) Members(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) Broadcast(_ context.Context, roomID uint, f Frame) error {
	h.Publish(roomID, f)
	return nil
}
