package memory

import (
	"context"
	"sync"

	"github.com/aescanero/gridmock/pkg/domain"
	"github.com/aescanero/gridmock/pkg/ports"
	"go.uber.org/zap"
)

// subscriberBuffer is the number of undelivered events a subscription holds
// before new ones are dropped
const subscriberBuffer = 1024

type subscription struct {
	id     uint64
	events chan domain.Event
	cancel context.CancelFunc
}

// InMemoryEventBus implements EventBus with in-process handlers. Each
// subscription is drained by its own goroutine, so a subscriber sees events
// in publish order.
type InMemoryEventBus struct {
	subscribers map[string][]*subscription
	nextID      uint64
	logger      *zap.Logger
	mu          sync.RWMutex
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]*subscription),
		logger:      logger,
	}
}

// Publish queues an event for every subscriber of topic without blocking.
// A subscriber whose buffer is full misses the event.
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, sub := range e.subscribers[topic] {
		select {
		case sub.events <- event:
		default:
			e.logger.Warn("subscriber buffer full, dropping event",
				zap.String("topic", topic),
				zap.Uint64("subscription", sub.id),
				zap.String("event_id", event.ID))
		}
	}

	return nil
}

// Subscribe registers handler on topic until ctx is cancelled
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	subCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.nextID++
	sub := &subscription{
		id:     e.nextID,
		events: make(chan domain.Event, subscriberBuffer),
		cancel: cancel,
	}
	e.subscribers[topic] = append(e.subscribers[topic], sub)
	e.mu.Unlock()

	go e.drain(subCtx, topic, sub, handler)

	return nil
}

// drain hands queued events to handler one at a time
func (e *InMemoryEventBus) drain(ctx context.Context, topic string, sub *subscription, handler ports.EventHandler) {
	defer e.unsubscribe(topic, sub.id)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-sub.events:
			if err := handler(ctx, event); err != nil {
				e.logger.Debug("event handler error",
					zap.String("topic", topic),
					zap.String("event_id", event.ID),
					zap.Error(err))
			}
		}
	}
}

// Unsubscribe removes all subscriptions from a topic
func (e *InMemoryEventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	subs := e.subscribers[topic]
	delete(e.subscribers, topic)
	e.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
	}
	return nil
}

// Close drops every subscriber
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	all := e.subscribers
	e.subscribers = make(map[string][]*subscription)
	e.mu.Unlock()

	for _, subs := range all {
		for _, sub := range subs {
			sub.cancel()
		}
	}
	return nil
}

// SubscriberCount returns the number of live subscriptions on topic
func (e *InMemoryEventBus) SubscriberCount(topic string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.subscribers[topic])
}

func (e *InMemoryEventBus) unsubscribe(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[topic]
	for i, s := range subs {
		if s.id == id {
			e.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}
