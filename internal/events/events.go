// Package events provides the event bus that decouples the storage
// browser engine from whatever frontend renders it.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hausakte/hausakte/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	// Navigation lifecycle
	EventNavigationStarted   EventType = "navigation_started"
	EventNavigationRetrying  EventType = "navigation_retrying"
	EventNavigationCompleted EventType = "navigation_completed"
	EventNavigationFailed    EventType = "navigation_failed"

	// Listing state
	EventListingChanged   EventType = "listing_changed"
	EventSelectionChanged EventType = "selection_changed"

	// User-facing messages (rendered as toasts by the frontend)
	EventToast EventType = "toast"

	// Bulk operations and imports
	EventBulkCompleted   EventType = "bulk_completed"
	EventImportCompleted EventType = "import_completed"
)

// ToastLevel classifies toast messages.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastError
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NavigationEvent covers the navigation lifecycle. For retry events
// Attempt carries the observable retry count (1-based), MaxAttempts the
// ceiling; the frontend renders "Verbindungsproblem, versuche erneut (n/3)".
type NavigationEvent struct {
	BaseEvent
	Path        string
	UserID      string
	Attempt     int
	MaxAttempts int
	Error       error
}

// ListingChangedEvent is published after a listing was applied to the store.
type ListingChangedEvent struct {
	BaseEvent
	Path      string
	FileCount int
	DirCount  int
	TotalSize int64
}

// SelectionChangedEvent is published whenever the selection set changes.
type SelectionChangedEvent struct {
	BaseEvent
	SelectedIDs []string
}

// ToastEvent carries a user-facing, German-language message.
// Rendering is the frontend's concern; this layer only formats.
type ToastEvent struct {
	BaseEvent
	Level   ToastLevel
	Message string
}

// BulkCompletedEvent summarizes a bulk operation.
// There is no rollback across items: Succeeded counts stay final even
// when Failed > 0.
type BulkCompletedEvent struct {
	BaseEvent
	Operation string // "download", "delete", "move"
	Succeeded int
	Failed    int
}

// ImportCompletedEvent summarizes a meter reading import.
type ImportCompletedEvent struct {
	BaseEvent
	Imported int
	Rejected int
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64
}

// NewEventBus creates a new event bus with the specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Publish never blocks;
// events for slow subscribers are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// Unsubscribe removes a subscription channel from a specific event type.
// This prevents leaks from abandoned subscriptions.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// PublishToast is a convenience method for publishing toast events.
func (eb *EventBus) PublishToast(level ToastLevel, message string) {
	eb.Publish(&ToastEvent{
		BaseEvent: BaseEvent{EventType: EventToast, Time: time.Now()},
		Level:     level,
		Message:   message,
	})
}

// PublishNavigation is a convenience method for navigation lifecycle events.
func (eb *EventBus) PublishNavigation(eventType EventType, path, userID string, attempt, maxAttempts int, err error) {
	eb.Publish(&NavigationEvent{
		BaseEvent:   BaseEvent{EventType: eventType, Time: time.Now()},
		Path:        path,
		UserID:      userID,
		Attempt:     attempt,
		MaxAttempts: maxAttempts,
		Error:       err,
	})
}

// GetDroppedEventCount returns the number of events dropped due to full buffers.
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
