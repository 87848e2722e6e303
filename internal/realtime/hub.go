package realtime

import (
	"sync"

	"farm-to-keells/internal/logger"
	"farm-to-keells/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultBuffer = 64

type Handler func(Event)

// Hub fans change events out to subscribers. Each subscription owns a
// buffered channel drained by its own goroutine, so delivery is in order per
// subscriber and a slow subscriber never blocks Publish.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int

	Delivered metrics.Counter
	Dropped   metrics.Counter
}

type Subscription struct {
	id     string
	filter Filter
	ch     chan Event
	done   chan struct{}
	hub    *Hub
	once   sync.Once
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe(filter Filter, fn Handler) *Subscription {
	s := &Subscription{
		id:     uuid.New().String(),
		filter: filter,
		ch:     make(chan Event, h.buffer),
		done:   make(chan struct{}),
		hub:    h,
	}

	h.mu.Lock()
	h.subs[s.id] = s
	total := len(h.subs)
	h.mu.Unlock()

	logger.L().Debug("realtime subscription opened",
		zap.String("subscription_id", s.id),
		zap.String("table", filter.Table),
		zap.String("column", filter.Column),
		zap.Int("total", total),
	)

	go s.run(fn)
	return s
}

func (s *Subscription) run(fn Handler) {
	for ev := range s.ch {
		select {
		case <-s.done:
			return
		default:
		}
		fn(ev)
	}
}

func (s *Subscription) ID() string { return s.id }

// Close stops delivery. Events still buffered are discarded. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.hub.remove(s.id)
	})
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		close(s.ch)
		delete(h.subs, id)
	}
}

// Publish returns the number of subscribers the event was queued for.
func (h *Hub) Publish(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, s := range h.subs {
		if !s.filter.Match(ev) {
			continue
		}
		select {
		case s.ch <- ev:
			sent++
			h.Delivered.Inc()
		default:
			h.Dropped.Inc()
			logger.L().Warn("realtime subscriber buffer full, dropping event",
				zap.String("subscription_id", s.id),
				zap.String("table", ev.Table),
			)
		}
	}
	return sent
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close terminates every subscription.
func (h *Hub) Close() {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		s.Close()
	}
}
