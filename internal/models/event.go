package models

import (
	"time"

	"github.com/google/uuid"
)

// ComplaintEvent announces a newly registered complaint to live feeds and
// downstream subscribers.
type ComplaintEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Protocol  string    `json:"protocol"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// EventComplaintRegistered is the Type of every ComplaintEvent emitted at intake.
const EventComplaintRegistered = "complaint_registered"

// NewComplaintEvent builds an event with a fresh UUID.
func NewComplaintEvent(protocol, category string, at time.Time) ComplaintEvent {
	return ComplaintEvent{
		ID:        uuid.NewString(),
		Type:      EventComplaintRegistered,
		Protocol:  protocol,
		Category:  category,
		CreatedAt: at.UTC(),
	}
}
