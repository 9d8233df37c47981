package memory

import (
	"context"
	"sync"

	"github.com/aescanero/gridmock/pkg/domain"
)

// ComponentStorage implements ComponentStore in process memory.
// A single lock guards both the component slice and the history map.
type ComponentStorage struct {
	components []domain.Component
	history    map[string][]domain.HistoryPoint
	mu         sync.RWMutex
}

// NewComponentStorage creates an empty in-memory store
func NewComponentStorage() *ComponentStorage {
	return &ComponentStorage{
		history: make(map[string][]domain.HistoryPoint),
	}
}

// List returns a window of the collection in insertion order
func (s *ComponentStorage) List(ctx context.Context, offset, limit int) ([]domain.Component, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.components)
	start := min(offset, total)
	end := start + min(limit, total-start)

	items := make([]domain.Component, end-start)
	copy(items, s.components[start:end])

	return items, total, nil
}

// Get returns a copy of the component with the given id
func (s *ComponentStorage) Get(ctx context.Context, id string) (*domain.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, domain.ErrComponentNotFound
	}

	c := s.components[i]
	return &c, nil
}

// Insert appends a component to the end of the collection
func (s *ComponentStorage) Insert(ctx context.Context, c domain.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.components = append(s.components, c)
	return nil
}

// Update applies fn to a copy of the component and commits it on success
func (s *ComponentStorage) Update(ctx context.Context, id string, fn func(*domain.Component) error) (*domain.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, domain.ErrComponentNotFound
	}

	updated := s.components[i]
	if err := fn(&updated); err != nil {
		return nil, err
	}
	s.components[i] = updated

	return &updated, nil
}

// Delete removes the component. Its history series, if any, is kept.
func (s *ComponentStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ErrComponentNotFound
	}

	s.components = append(s.components[:i], s.components[i+1:]...)
	return nil
}

// Count returns the collection size
func (s *ComponentStorage) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.components), nil
}

// History returns a copy of the history series for id
func (s *ComponentStorage) History(ctx context.Context, id string) ([]domain.HistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, ok := s.history[id]
	if !ok {
		return nil, domain.ErrHistoryNotFound
	}

	out := make([]domain.HistoryPoint, len(points))
	copy(out, points)
	return out, nil
}

// SaveHistory stores the history series for id, replacing any previous one
func (s *ComponentStorage) SaveHistory(ctx context.Context, id string, points []domain.HistoryPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]domain.HistoryPoint, len(points))
	copy(stored, points)
	s.history[id] = stored

	return nil
}

// Reset drops all components and history
func (s *ComponentStorage) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.components = nil
	s.history = make(map[string][]domain.HistoryPoint)
	return nil
}

// Ping always succeeds for in-memory storage
func (s *ComponentStorage) Ping(ctx context.Context) error {
	return nil
}

// indexOf returns the slice index of id or -1. Callers must hold the lock.
func (s *ComponentStorage) indexOf(id string) int {
	for i := range s.components {
		if s.components[i].ID == id {
			return i
		}
	}
	return -1
}
