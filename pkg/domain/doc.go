// Package domain defines the component catalog model shared by the service,
// the storage adapters and the API layer.
package domain
