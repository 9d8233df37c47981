// Package ports declares the interfaces the component service depends on.
package ports

import (
	"context"
	"time"

	"github.com/aescanero/gridmock/pkg/domain"
)

// ComponentStore holds the ordered component collection and the history
// series keyed by component id. Implementations must make each method
// atomic with respect to the others.
type ComponentStore interface {
	// List returns the window [offset, offset+limit) in insertion order and
	// the current collection size.
	List(ctx context.Context, offset, limit int) ([]domain.Component, int, error)
	Get(ctx context.Context, id string) (*domain.Component, error)
	Insert(ctx context.Context, c domain.Component) error
	// Update loads the component, applies fn to a copy and stores the copy
	// only if fn returns nil.
	Update(ctx context.Context, id string, fn func(*domain.Component) error) (*domain.Component, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)

	History(ctx context.Context, id string) ([]domain.HistoryPoint, error)
	SaveHistory(ctx context.Context, id string, points []domain.HistoryPoint) error

	// Reset drops every component and history series.
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
}

// EventHandler receives events from a subscription
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus fans component events out to subscribers
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// MetricsCollector records service-level metrics
type MetricsCollector interface {
	RecordMutation(operation string)
	RecordValidationFailure(operation string)
	SetComponentCount(count int)
	ObserveRequest(method, route string, status int, duration time.Duration)
}
