// Package storage provides component store implementations.
//
// Implementations:
//   - memory: process memory guarded by one lock (default)
//   - redis: shared Redis keyspace so several replicas serve one dataset
package storage
