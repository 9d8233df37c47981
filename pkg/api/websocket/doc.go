// Package websocket provides real-time component change streaming via WebSocket.
//
// Clients can connect to /api/ws/components to receive a JSON frame for every
// component created, updated or deleted through the REST API.
package websocket
