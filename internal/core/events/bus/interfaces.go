package bus

import "time"

// EventBus is an in-process pub/sub bus.
//
// - Type-based fan-out: handlers subscribe by Event.Type().
// - Synchronous delivery in subscription order, in the publisher's goroutine.
// - Handler errors are joined and returned from Publish.
// - All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers event to every active subscriber of event.Type() and
	// to wildcard subscribers.
	Publish(event Event) error
	// PublishWithFilters drops the event without error if any filter rejects it.
	PublishWithFilters(event Event, filters ...EventFilter) error
	// PublishAsync publishes in a separate goroutine; the channel receives the
	// joined handler error (or nil) and is then closed.
	PublishAsync(event Event) <-chan error

	// Subscribe registers handler for eventType. Wildcard receives every event.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil subscription is ignored.
	Unsubscribe(sub Subscription) error

	// GetMetrics returns a snapshot of delivery counters.
	GetMetrics() EventBusMetrics
}

// Wildcard subscribes to every event type.
const Wildcard = "*"

// Event is an immutable message transported by the bus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event.
	EventHandler func(event Event) error
	// EventFilter decides whether an event should be delivered.
	EventFilter func(event Event) bool
)

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusMetrics counts bus activity since creation.
type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
}
