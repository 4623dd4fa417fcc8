package bus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
}

func (e simpleEvent) Type() string         { return e.typeStr }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent creates a simple Event implementation.
func NewEvent(typ, src string, data any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	bus       *inMemoryBus

	mu     sync.Mutex
	active bool
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	wasActive := s.active
	s.active = false
	s.mu.Unlock()
	if wasActive {
		s.bus.remove(s)
	}
	return nil
}

type inMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]*subscription
	metrics  EventBusMetrics
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{handlers: make(map[string][]*subscription)}
}

func (b *inMemoryBus) Publish(event Event) error {
	if event == nil {
		return errors.New("nil event")
	}

	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[event.Type()])+len(b.handlers[Wildcard]))
	subs = append(subs, b.handlers[event.Type()]...)
	if event.Type() != Wildcard {
		subs = append(subs, b.handlers[Wildcard]...)
	}
	b.mu.RUnlock()

	var (
		all       error
		delivered uint64
	)
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		delivered++
		if err := s.handler(event); err != nil {
			all = errors.Join(all, fmt.Errorf("%s handler %s: %w", event.Type(), s.id, err))
		}
	}

	b.mu.Lock()
	b.metrics.Published++
	b.metrics.DeliveredHandlers += delivered
	if all != nil {
		b.metrics.Errors++
	}
	b.mu.Unlock()

	return all
}

func (b *inMemoryBus) PublishWithFilters(event Event, filters ...EventFilter) error {
	for _, f := range filters {
		if !f(event) {
			b.mu.Lock()
			b.metrics.DroppedByFilters++
			b.mu.Unlock()
			return nil
		}
	}
	return b.Publish(event)
}

func (b *inMemoryBus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- b.Publish(event)
		close(ch)
	}()
	return ch
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if eventType == "" {
		return nil, errors.New("event type is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	s := &subscription{
		id:        uuid.NewString(),
		eventType: eventType,
		handler:   handler,
		bus:       b,
		active:    true,
	}

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], s)
	b.mu.Unlock()
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) GetMetrics() EventBusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m := b.metrics
	for _, subs := range b.handlers {
		m.SubscribersActive += uint64(len(subs))
	}
	return m
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[s.eventType]
	for i, cur := range subs {
		if cur == s {
			b.handlers[s.eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[s.eventType]) == 0 {
		delete(b.handlers, s.eventType)
	}
}
