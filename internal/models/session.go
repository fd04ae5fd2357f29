// Package models defines persistence structures for TripFlow sessions.
package models

import "time"

// Session is the persisted record for one conversation. State is the
// authoritative blob; the remaining fields are denormalized copies kept for
// efficient listing and are refreshed on every save.
type Session struct {
	SessionID    string     `json:"session_id"`
	State        *TripState `json:"state"`
	CurrentStep  Step       `json:"current_step"`
	Origin       string     `json:"origin,omitempty"`
	Destination  string     `json:"destination,omitempty"`
	DurationDays int        `json:"duration_days,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SessionSummary is one row of a session listing, most recent first.
type SessionSummary struct {
	SessionID    string       `json:"session_id"`
	LastActivity time.Time    `json:"last_activity"`
	CreatedAt    time.Time    `json:"created_at"`
	CurrentStep  Step         `json:"current_step"`
	TripDetails  TripProgress `json:"trip_details"`
}
