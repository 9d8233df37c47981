// Package grpc serves the standard gRPC health checking protocol for the
// component catalog.
package grpc
