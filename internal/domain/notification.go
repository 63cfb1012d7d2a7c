package domain

import "time"

// Notification is a best-effort message written for an admin or donor when a
// contribution changes status.
type Notification struct {
	ID             string
	Recipient      string
	Title          string
	Body           string
	Locale         string
	ContributionID string
	CreatedAt      time.Time
}
