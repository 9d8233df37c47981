// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Component listing, lookup, registration, update and removal
//   - Synthetic history of seeded components
//   - Health checks
//   - Prometheus metrics
//
// All bodies are JSON; errors are returned as {"message": "..."}.
package http
