// internal/service/event_bus.go
package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
)

// EventBus fans events out to subscribers. Slow subscribers lose events
// instead of blocking publishers.
type EventBus struct {
	subscribers map[uint64]*Subscription
	events      chan model.Event
	nextID      uint64
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// Subscription receives the events it was registered for.
type Subscription struct {
	id    uint64
	types map[model.EventType]bool
	ch    chan model.Event
}

// Events is closed by Unsubscribe.
func (s *Subscription) Events() <-chan model.Event {
	return s.ch
}

func (s *Subscription) wants(t model.EventType) bool {
	return len(s.types) == 0 || s.types[t]
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[uint64]*Subscription),
		events:      make(chan model.Event, 1000),
		logger:      logger.With(zap.String("component", "event-bus")),
	}
}

// Start distributes events until ctx is done.
func (eb *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eb.events:
			eb.distributeEvent(event)
		}
	}
}

// Publish queues an event without blocking.
func (eb *EventBus) Publish(event model.Event) {
	if eb == nil {
		return
	}
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// Subscribe registers for the given event types, or all when none given.
func (eb *EventBus) Subscribe(types ...model.EventType) *Subscription {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	eb.nextID++
	sub := &Subscription{
		id:    eb.nextID,
		types: make(map[model.EventType]bool, len(types)),
		ch:    make(chan model.Event, 100),
	}
	for _, t := range types {
		sub.types[t] = true
	}
	eb.subscribers[sub.id] = sub
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (eb *EventBus) Unsubscribe(sub *Subscription) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if _, ok := eb.subscribers[sub.id]; ok {
		delete(eb.subscribers, sub.id)
		close(sub.ch)
	}
}

// SubscriberCount returns the number of live subscriptions.
func (eb *EventBus) SubscriberCount() int {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	return len(eb.subscribers)
}

func (eb *EventBus) distributeEvent(event model.Event) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, sub := range eb.subscribers {
		if !sub.wants(event.EventType) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			eb.logger.Debug("Subscriber is slow, event skipped",
				zap.Uint64("subscriber", sub.id),
				zap.String("event_type", string(event.EventType)),
			)
		}
	}
}
