// Package realtime fans stored turns out to live subscribers.
package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/zhouzirui/anchor/backend/internal/model/chat"
)

const defaultBuffer = 16

// Subscription receives the user's new turns until Close is called.
type Subscription struct {
	C <-chan chat.Turn

	hub    *Hub
	userID string
	ch     chan chat.Turn
	once   sync.Once
}

// Close unsubscribes and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s.userID, s.ch) })
}

// Hub 按用户分发新写入的对话。订阅者消费过慢时直接断开，不阻塞写入。
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan chat.Turn]struct{}
	buffer int
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[chan chat.Turn]struct{}),
		buffer: defaultBuffer,
		logger: logger.Named("realtime"),
	}
}

// Subscribe registers a listener for userID.
func (h *Hub) Subscribe(userID string) *Subscription {
	ch := make(chan chat.Turn, h.buffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan chat.Turn]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	return &Subscription{C: ch, hub: h, userID: userID, ch: ch}
}

// Publish implements store.TurnPublisher.
func (h *Hub) Publish(turn chat.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[turn.UserID] {
		select {
		case ch <- turn:
		default:
			h.logger.Warn("dropping slow subscriber", zap.String("user_id", turn.UserID))
			h.dropLocked(turn.UserID, ch)
		}
	}
}

// Subscribers reports how many listeners userID has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func (h *Hub) remove(userID string, ch chan chat.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(userID, ch)
}

func (h *Hub) dropLocked(userID string, ch chan chat.Turn) {
	set, ok := h.subs[userID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, userID)
	}
}
