// Package feed pushes new-complaint events to connected administrator
// dashboards. A single Hub goroutine owns the set of clients; connections
// register and unregister through its channels.
package feed

import "ouvidoria/backend/internal/models"

// Client is one connected dashboard (a WebSocket today).
type Client interface {
	// GetID returns a unique identifier for the connection.
	GetID() string
	// GetSendChannel returns the channel the hub writes events to.
	GetSendChannel() chan<- models.ComplaintEvent
	// Run starts the client's pumps.
	Run()
	// Close stops the client. The hub calls it exactly once, on unregister.
	Close()
}
