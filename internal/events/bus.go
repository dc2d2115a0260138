// Package events carries in-process change notifications. The trade manager
// and the feed chain publish here; the API websocket hub subscribes and pushes
// to clients. There is no implicit shared state anywhere else.
package events

import (
	"sync"
	"time"
)

// EventType labels the system events published on the bus.
type EventType string

const (
	EventFeedFallback     EventType = "FEED_FALLBACK"
	EventTradeBookmarked  EventType = "TRADE_BOOKMARKED"
	EventTradeRemoved     EventType = "TRADE_REMOVED"
	EventTradeSelected    EventType = "TRADE_SELECTED"
	EventTradeUpdated     EventType = "TRADE_UPDATED"
	EventTradeEntered     EventType = "TRADE_ENTERED"
	EventTradeManaging    EventType = "TRADE_MANAGING"
	EventTradeClosed      EventType = "TRADE_CLOSED"
	EventGuidanceAppended EventType = "GUIDANCE_APPENDED"
)

// Event is one published notification.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber handles published events.
type Subscriber func(Event)

// Bus fans events out to subscribers. Delivery is asynchronous so a slow
// subscriber cannot stall a state-mutating operation.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for one event type.
func (b *Bus) Subscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], sub)
}

// SubscribeAll registers a subscriber for every event.
func (b *Bus) SubscribeAll(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allSubs = append(b.allSubs, sub)
}

// Publish delivers an event to all matching subscribers. Publish on a nil bus
// is a no-op so components can run without wiring one.
func (b *Bus) Publish(eventType EventType, data map[string]interface{}) {
	if b == nil {
		return
	}

	event := Event{Type: eventType, Timestamp: time.Now(), Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers[eventType] {
		go sub(event)
	}
	for _, sub := range b.allSubs {
		go sub(event)
	}
}
