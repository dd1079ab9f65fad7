package models

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a complaint.
type Status string

const (
	// StatusPending is the state of every freshly registered complaint.
	StatusPending Status = "pending"
	// StatusResponded is reached once an administrator attaches a response.
	StatusResponded Status = "responded"
)

// Complaint is a single filed complaint. It is the unit of persistence for
// every storage backend; Protocol is the primary key.
type Complaint struct {
	// Protocol is the tracking identifier issued at registration. Immutable.
	Protocol string `gorm:"primaryKey;type:text" json:"protocol"`
	// FilerName is the name given by the filer, or the anonymous placeholder.
	FilerName string `gorm:"type:text;not null" json:"filer_name"`
	// NationalID holds the 11 normalized digits of the filer's national id.
	NationalID string `gorm:"type:char(11);not null;index" json:"national_id"`
	// EnrollmentID holds the 8 normalized digits checked for eligibility at creation.
	EnrollmentID string `gorm:"type:char(8);not null;index" json:"enrollment_id"`
	// Category is the free-form complaint type ("infraestrutura", "elogio", ...).
	Category string `gorm:"type:text;not null" json:"category"`
	// Description is the complaint body.
	Description string `gorm:"type:text;not null" json:"description"`
	// CreatedAt is set once when the complaint is registered.
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	// Status is StatusResponded if and only if Response is set.
	Status Status `gorm:"type:text;not null" json:"status"`
	// Response is the administrative answer. Nil while pending.
	Response *string `gorm:"type:text" json:"response"`
	// RespondedAt records when the current response was attached.
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// Respond attaches (or replaces) the administrative response and flips the
// status to StatusResponded.
func (c *Complaint) Respond(text string, at time.Time) {
	resp := text
	ts := at.UTC()
	c.Response = &resp
	c.RespondedAt = &ts
	c.Status = StatusResponded
}

// IsResponded reports whether a response has been attached.
func (c *Complaint) IsResponded() bool {
	return c.Status == StatusResponded && c.Response != nil
}

// RegistrationInput is the raw, unvalidated payload a filer submits.
type RegistrationInput struct {
	FilerName    string `json:"filer_name"`
	NationalID   string `json:"national_id"`
	EnrollmentID string `json:"enrollment_id"`
	Category     string `json:"category"`
	Description  string `json:"description"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (in RegistrationInput) Trimmed() RegistrationInput {
	return RegistrationInput{
		FilerName:    strings.TrimSpace(in.FilerName),
		NationalID:   strings.TrimSpace(in.NationalID),
		EnrollmentID: strings.TrimSpace(in.EnrollmentID),
		Category:     strings.TrimSpace(in.Category),
		Description:  strings.TrimSpace(in.Description),
	}
}
