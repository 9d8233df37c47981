package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/aescanero/gridmock/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// maxUpdateRetries bounds optimistic-lock retries in Update
const maxUpdateRetries = 5

// listWindow returns the collection size followed by the JSON records of the
// requested window, read atomically.
var listWindow = redis.NewScript(`
local total = redis.call('LLEN', KEYS[1])
local out = {total}
if tonumber(ARGV[2]) < tonumber(ARGV[1]) then
	return out
end
local ids = redis.call('LRANGE', KEYS[1], ARGV[1], ARGV[2])
for _, id in ipairs(ids) do
	local v = redis.call('HGET', KEYS[2], id)
	if v then
		table.insert(out, v)
	end
end
return out
`)

// ComponentStorage implements ComponentStore using Redis.
//
// Keys:
//
//	<prefix>:components        list of ids in insertion order
//	<prefix>:components:data   hash id -> component JSON
//	<prefix>:history           hash id -> history JSON
type ComponentStorage struct {
	client *redis.Client
	logger *zap.Logger

	listKey    string
	dataKey    string
	historyKey string
}

// NewComponentStorage creates a new Redis component storage under prefix
func NewComponentStorage(client *redis.Client, prefix string, logger *zap.Logger) *ComponentStorage {
	return &ComponentStorage{
		client:     client,
		logger:     logger,
		listKey:    prefix + ":components",
		dataKey:    prefix + ":components:data",
		historyKey: prefix + ":history",
	}
}

// List returns a window of the collection in insertion order
func (s *ComponentStorage) List(ctx context.Context, offset, limit int) ([]domain.Component, int, error) {
	// LRANGE stop is inclusive; stop < start yields only the total
	offset = min(offset, math.MaxInt32)
	stop := offset + min(limit, math.MaxInt32) - 1

	res, err := listWindow.Run(ctx, s.client, []string{s.listKey, s.dataKey}, offset, stop).Slice()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list components: %w", err)
	}
	if len(res) == 0 {
		return nil, 0, fmt.Errorf("failed to list components: empty script result")
	}

	total, ok := res[0].(int64)
	if !ok {
		return nil, 0, fmt.Errorf("failed to list components: unexpected total type %T", res[0])
	}

	items := make([]domain.Component, 0, len(res)-1)
	for _, raw := range res[1:] {
		data, ok := raw.(string)
		if !ok {
			return nil, 0, fmt.Errorf("failed to list components: unexpected record type %T", raw)
		}

		var c domain.Component
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal component: %w", err)
		}
		items = append(items, c)
	}

	return items, int(total), nil
}

// Get retrieves a component by id
func (s *ComponentStorage) Get(ctx context.Context, id string) (*domain.Component, error) {
	data, err := s.client.HGet(ctx, s.dataKey, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrComponentNotFound
		}
		return nil, fmt.Errorf("failed to get component: %w", err)
	}

	var c domain.Component
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal component: %w", err)
	}

	return &c, nil
}

// Insert appends a component to the collection
func (s *ComponentStorage) Insert(ctx context.Context, c domain.Component) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal component: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.dataKey, c.ID, data)
		pipe.RPush(ctx, s.listKey, c.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert component: %w", err)
	}

	s.logger.Debug("component stored", zap.String("component_id", c.ID))
	return nil
}

// Update applies fn under an optimistic lock on the record hash
func (s *ComponentStorage) Update(ctx context.Context, id string, fn func(*domain.Component) error) (*domain.Component, error) {
	var updated *domain.Component

	txf := func(tx *redis.Tx) error {
		data, err := tx.HGet(ctx, s.dataKey, id).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrComponentNotFound
			}
			return fmt.Errorf("failed to get component: %w", err)
		}

		var c domain.Component
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("failed to unmarshal component: %w", err)
		}

		if err := fn(&c); err != nil {
			return err
		}

		out, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal component: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.dataKey, id, out)
			return nil
		})
		if err != nil {
			return err
		}

		updated = &c
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, s.dataKey)
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("component update conflict, retrying",
				zap.String("component_id", id),
				zap.Int("attempt", i+1))
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, fmt.Errorf("failed to update component %s: too many concurrent writers", id)
}

// Delete removes a component. Its history series, if any, is kept.
func (s *ComponentStorage) Delete(ctx context.Context, id string) error {
	var removed *redis.IntCmd

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, s.dataKey, id)
		pipe.LRem(ctx, s.listKey, 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete component: %w", err)
	}

	if removed.Val() == 0 {
		return domain.ErrComponentNotFound
	}

	s.logger.Debug("component deleted", zap.String("component_id", id))
	return nil
}

// Count returns the collection size
func (s *ComponentStorage) Count(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.listKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count components: %w", err)
	}
	return int(n), nil
}

// History retrieves the history series for id
func (s *ComponentStorage) History(ctx context.Context, id string) ([]domain.HistoryPoint, error) {
	data, err := s.client.HGet(ctx, s.historyKey, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	var points []domain.HistoryPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	return points, nil
}

// SaveHistory stores the history series for id
func (s *ComponentStorage) SaveHistory(ctx context.Context, id string, points []domain.HistoryPoint) error {
	data, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := s.client.HSet(ctx, s.historyKey, id, data).Err(); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	return nil
}

// Reset deletes every key owned by this storage
func (s *ComponentStorage) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.listKey, s.dataKey, s.historyKey).Err(); err != nil {
		return fmt.Errorf("failed to reset storage: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *ComponentStorage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
