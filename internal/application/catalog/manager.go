package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/gridmock/pkg/domain"
	"github.com/aescanero/gridmock/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation labels for metrics and logs
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Page is one window of the component collection
type Page struct {
	Items  []domain.Component `json:"items"`
	Total  int                `json:"total"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
}

// Manager coordinates component catalog operations
type Manager struct {
	store     ports.ComponentStore
	eventBus  ports.EventBus
	metrics   ports.MetricsCollector
	validator *Validator
	logger    *zap.Logger

	now func() time.Time
}

// NewManager creates a new catalog manager
func NewManager(
	store ports.ComponentStore,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	validator *Validator,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		store:     store,
		eventBus:  eventBus,
		metrics:   metrics,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// ListComponents returns the window [offset, offset+limit) in insertion order.
// Offsets past the end yield an empty window.
func (m *Manager) ListComponents(ctx context.Context, offset, limit int) (*Page, error) {
	items, total, err := m.store.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}

	if items == nil {
		items = []domain.Component{}
	}

	return &Page{
		Items:  items,
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}, nil
}

// GetComponent retrieves a component by id
func (m *Manager) GetComponent(ctx context.Context, id string) (*domain.Component, error) {
	c, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get component %s: %w", id, err)
	}
	return c, nil
}

// GetHistory retrieves the history series for id. Only seeded components
// have one, and it outlives the component itself.
func (m *Manager) GetHistory(ctx context.Context, id string) ([]domain.HistoryPoint, error) {
	points, err := m.store.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get history %s: %w", id, err)
	}
	return points, nil
}

// CreateComponent validates the input and appends a new component.
// No history series is generated for it.
func (m *Manager) CreateComponent(ctx context.Context, in ComponentInput) (*domain.Component, error) {
	if err := m.validator.ValidateCreate(in); err != nil {
		m.metrics.RecordValidationFailure(OpCreate)
		return nil, err
	}

	c := domain.Component{
		ID:          uuid.New().String(),
		Name:        in.Name.Text,
		Status:      domain.Status(in.Status.Text),
		Type:        in.Type.Text,
		LastUpdated: m.timestamp(),
	}

	if err := m.store.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to insert component: %w", err)
	}

	m.metrics.RecordMutation(OpCreate)
	m.refreshCount(ctx)
	m.publish(ctx, domain.EventTypeComponentCreated, c.ID, &c)

	m.logger.Info("component created",
		zap.String("component_id", c.ID),
		zap.String("name", c.Name),
		zap.String("status", string(c.Status)))

	return &c, nil
}

// UpdateComponent applies the supplied fields to an existing component.
// lastUpdated is refreshed even when no field is supplied. A rejected
// payload leaves the component unchanged.
func (m *Manager) UpdateComponent(ctx context.Context, id string, in ComponentInput) (*domain.Component, error) {
	updated, err := m.store.Update(ctx, id, func(c *domain.Component) error {
		if err := m.validator.ValidateUpdate(in); err != nil {
			return err
		}

		if in.Name.Present {
			c.Name = in.Name.Text
		}
		if in.Status.Present {
			c.Status = domain.Status(in.Status.Text)
		}
		if in.Type.Present {
			c.Type = in.Type.Text
		}
		c.LastUpdated = m.timestamp()

		return nil
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			m.metrics.RecordValidationFailure(OpUpdate)
			return nil, err
		}
		return nil, fmt.Errorf("failed to update component %s: %w", id, err)
	}

	m.metrics.RecordMutation(OpUpdate)
	m.publish(ctx, domain.EventTypeComponentUpdated, updated.ID, updated)

	m.logger.Info("component updated",
		zap.String("component_id", updated.ID),
		zap.String("status", string(updated.Status)))

	return updated, nil
}

// DeleteComponent removes a component. Its history series is left in place.
func (m *Manager) DeleteComponent(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete component %s: %w", id, err)
	}

	m.metrics.RecordMutation(OpDelete)
	m.refreshCount(ctx)
	m.publish(ctx, domain.EventTypeComponentDeleted, id, nil)

	m.logger.Info("component deleted", zap.String("component_id", id))

	return nil
}

// Ping checks the underlying store
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

// timestamp returns the current time at the millisecond precision used on
// the wire
func (m *Manager) timestamp() time.Time {
	return m.now().UTC().Truncate(time.Millisecond)
}

// refreshCount updates the catalog size gauge
func (m *Manager) refreshCount(ctx context.Context) {
	n, err := m.store.Count(ctx)
	if err != nil {
		m.logger.Warn("failed to count components", zap.Error(err))
		return
	}
	m.metrics.SetComponentCount(n)
}

// publish emits a change event. Failures are logged and never surface to
// the caller.
func (m *Manager) publish(ctx context.Context, eventType domain.EventType, componentID string, c *domain.Component) {
	if m.eventBus == nil {
		return
	}

	event := domain.Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		ComponentID: componentID,
		Timestamp:   m.timestamp(),
		Component:   c,
	}

	if err := m.eventBus.Publish(ctx, domain.ComponentEventsTopic, event); err != nil {
		m.logger.Error("failed to publish component event",
			zap.String("component_id", componentID),
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}
