package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/gridmock/pkg/domain"
	"github.com/aescanero/gridmock/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamsEventBus implements EventBus using Redis Streams. Every subscriber
// reads the stream independently, so each replica sees every event.
type StreamsEventBus struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	maxLen int64

	mu      sync.Mutex
	cancels map[string][]context.CancelFunc
}

// NewStreamsEventBus creates a new Redis Streams event bus. Streams are
// trimmed to roughly maxLen entries.
func NewStreamsEventBus(client *redis.Client, prefix string, maxLen int64, logger *zap.Logger) *StreamsEventBus {
	return &StreamsEventBus{
		client:  client,
		logger:  logger,
		prefix:  prefix,
		maxLen:  maxLen,
		cancels: make(map[string][]context.CancelFunc),
	}
}

// Publish appends an event to the topic stream
func (e *StreamsEventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	streamKey := e.streamKey(topic)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamKey,
		MaxLen: e.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	if _, err := e.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	e.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("stream", streamKey))

	return nil
}

// Subscribe starts reading new entries of the topic stream until ctx is
// cancelled or the topic is unsubscribed
func (e *StreamsEventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	streamKey := e.streamKey(topic)

	readCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancels[topic] = append(e.cancels[topic], cancel)
	e.mu.Unlock()

	e.logger.Debug("subscribed to event stream", zap.String("stream", streamKey))

	go e.readStream(readCtx, streamKey, handler)

	return nil
}

// readStream reads events appended after the subscription started
func (e *StreamsEventBus) readStream(ctx context.Context, streamKey string, handler ports.EventHandler) {
	lastID := "$"

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streams, err := e.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{streamKey, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			e.logger.Error("failed to read from stream",
				zap.String("stream", streamKey),
				zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				lastID = message.ID
				e.processMessage(ctx, streamKey, message, handler)
			}
		}
	}
}

// processMessage decodes one stream entry and hands it to handler
func (e *StreamsEventBus) processMessage(ctx context.Context, streamKey string, message redis.XMessage, handler ports.EventHandler) {
	data, ok := message.Values["data"].(string)
	if !ok {
		e.logger.Error("invalid message format",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID))
		return
	}

	var event domain.Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		e.logger.Error("failed to unmarshal event",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
		return
	}

	if err := handler(ctx, event); err != nil {
		e.logger.Debug("handler error",
			zap.String("stream", streamKey),
			zap.String("message_id", message.ID),
			zap.Error(err))
	}
}

// Unsubscribe stops every reader of topic
func (e *StreamsEventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, cancel := range e.cancels[topic] {
		cancel()
	}
	delete(e.cancels, topic)
	return nil
}

// Close stops every reader. The Redis client is closed by the caller.
func (e *StreamsEventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for topic, cancels := range e.cancels {
		for _, cancel := range cancels {
			cancel()
		}
		delete(e.cancels, topic)
	}
	return nil
}

func (e *StreamsEventBus) streamKey(topic string) string {
	return fmt.Sprintf("%s:events:%s", e.prefix, topic)
}
