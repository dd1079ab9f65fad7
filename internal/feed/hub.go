package feed

import (
	"context"
	"errors"
	"log/slog"
	"ouvidoria/backend/internal/models"
	"time"
)

// ErrHubStopped is returned by Notify once the hub's Run loop has exited.
var ErrHubStopped = errors.New("feed hub stopped")

// Hub fans ComplaintEvents out to every registered Client.
type Hub struct {
	clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	broadcastCh  chan models.ComplaintEvent
	countCh      chan chan int

	done   chan struct{}
	now    func() time.Time
	logger *slog.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		broadcastCh:  make(chan models.ComplaintEvent),
		countCh:      make(chan chan int),
		done:         make(chan struct{}),
		now:          time.Now,
		logger:       logger,
	}
}

// Run is the hub's event loop. It returns when ctx is done, closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for id, c := range h.clients {
			delete(h.clients, id)
			c.Close()
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.RegisterCh:
			h.clients[c.GetID()] = c
			h.logger.Info("feed client registered", "client_id", c.GetID(), "clients", len(h.clients))

		case c := <-h.UnregisterCh:
			h.remove(c.GetID())

		case ev := <-h.broadcastCh:
			for id, c := range h.clients {
				select {
				case c.GetSendChannel() <- ev:
				default:
					// slow consumer
					h.logger.Warn("feed client too slow, dropping", "client_id", id)
					h.remove(id)
				}
			}

		case reply := <-h.countCh:
			reply <- len(h.clients)
		}
	}
}

func (h *Hub) remove(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	c.Close()
	h.logger.Info("feed client unregistered", "client_id", id, "clients", len(h.clients))
}

// Register adds c, unless the hub has stopped.
func (h *Hub) Register(c Client) bool {
	select {
	case h.RegisterCh <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c. Safe to call after the hub has stopped.
func (h *Hub) Unregister(c Client) {
	select {
	case h.UnregisterCh <- c:
	case <-h.done:
	}
}

// Count returns the number of registered clients, or 0 once stopped.
func (h *Hub) Count() int {
	reply := make(chan int, 1)
	select {
	case h.countCh <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Notify broadcasts a new-complaint event. It satisfies notify.Notifier.
func (h *Hub) Notify(ctx context.Context, protocol, category string) error {
	ev := models.NewComplaintEvent(protocol, category, h.now())
	select {
	case h.broadcastCh <- ev:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
