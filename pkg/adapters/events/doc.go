// Package events provides component change event bus implementations.
//
// Implementations:
//   - memory: in-process fan-out (default)
//   - redis: Redis Streams, used together with the redis storage backend
package events
