package simulation

import "sync"

// DefaultBuffer is the frame buffer used when a subscriber asks for none.
const DefaultBuffer = 64

// Subscription receives frames until it is closed or falls behind.
//
// A subscriber that lets its buffer fill up is dropped: its channel is closed
// and Lagged reports true. It should resubscribe to resynchronise from a new
// snapshot.
type Subscription struct {
	frames chan Frame
	hub    *Hub
	once   sync.Once
	lagged bool
}

// Frames returns the channel frames are delivered on.
func (s *Subscription) Frames() <-chan Frame {
	return s.frames
}

// Lagged reports whether the subscription was dropped for falling behind.
// Only meaningful once Frames is closed.
func (s *Subscription) Lagged() bool {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.lagged
}

// Close stops delivery. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s)
}

// Hub fans frames out to subscribers without ever blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func newHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

func (h *Hub) subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscription{frames: make(chan Frame, buffer), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.frames) })
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *Hub) publish(frame Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.frames <- frame:
		default:
			sub.lagged = true
			h.removeLocked(sub)
		}
	}
}

func (h *Hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		h.removeLocked(sub)
	}
}

func (h *Hub) removeLocked(sub *Subscription) {
	delete(h.subs, sub)
	sub.once.Do(func() { close(sub.frames) })
}
