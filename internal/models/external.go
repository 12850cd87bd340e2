package models

import "time"

// ExternalEvent is a calendar entry observed through a provider adapter.
// The reconciler treats these as read-only ground truth; they are never
// written back. StartTime/EndTime follow the same "HH:MM" convention as
// Shift, with both nil meaning all-day.
type ExternalEvent struct {
	ExternalID string    `json:"externalId"`
	OwnerID    string    `json:"ownerId"`
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
	StartTime  *string   `json:"startTime,omitempty"`
	EndTime    *string   `json:"endTime,omitempty"`
}

// AllDay reports whether the event has no clock range.
func (e *ExternalEvent) AllDay() bool {
	return e.StartTime == nil && e.EndTime == nil
}
