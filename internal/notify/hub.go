// Package notify delivers stored notifications to live channels: websocket
// subscribers of the HTTP API and an optional ntfy push server.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
)

const defaultBuffer = 16

// Message is the JSON frame pushed to websocket subscribers.
type Message struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ProjectID string    `json:"project_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessage(n *domain.Notification) Message {
	return Message{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		ProjectID: n.ProjectID,
		CreatedAt: n.CreatedAt,
	}
}

// Subscription receives the messages addressed to one user. C is closed when
// the subscription ends, either through Cancel or because the subscriber fell
// behind.
type Subscription struct {
	C        <-chan Message
	ch       chan Message
	username string
	hub      *Hub
	once     sync.Once
}

// Cancel detaches the subscription from its hub. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.hub.remove(s)
}

// Hub fans notifications out to the subscribers of each recipient.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger *slog.Logger
	closed bool
}

// NewHub returns a hub whose subscribers buffer up to buffer messages before
// they are dropped as too slow.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a subscriber for username.
func (h *Hub) Subscribe(username string) *Subscription {
	ch := make(chan Message, h.buffer)
	sub := &Subscription{C: ch, ch: ch, username: username, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(ch) })
		return sub
	}
	set, ok := h.subs[username]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[username] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish hands n to every subscriber of its recipient without blocking.
func (h *Hub) Publish(_ context.Context, n *domain.Notification) {
	msg := newMessage(n)

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[n.Recipient] {
		select {
		case sub.ch <- msg:
		default:
			h.logger.Warn("dropping slow notification subscriber", "user", sub.username)
			h.removeLocked(sub)
		}
	}
}

// Subscribers returns the number of live subscriptions for username.
func (h *Hub) Subscribers(username string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[username])
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			h.removeLocked(sub)
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscription) {
	if set, ok := h.subs[sub.username]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.username)
		}
	}
	sub.once.Do(func() { close(sub.ch) })
}
