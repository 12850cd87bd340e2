package models

import "time"

// SourceOrigin tells where a shift originally came from.
type SourceOrigin string

const (
	SourceOriginLocal        SourceOrigin = "LOCAL"
	SourceOriginExternalSync SourceOrigin = "EXTERNAL_SYNC"
)

// Shift represents a committed work assignment for an owner on a calendar day.
// StartTime/EndTime are "HH:MM" clock values forming a half-open range
// [start, end); both nil means an all-day shift.
type Shift struct {
	ID           string       `db:"id" json:"id"`
	OwnerID      string       `db:"owner_id" json:"ownerId"`
	Date         time.Time    `db:"shift_date" json:"date"`
	StartTime    *string      `db:"start_time" json:"startTime,omitempty"`
	EndTime      *string      `db:"end_time" json:"endTime,omitempty"`
	Role         string       `db:"role" json:"role"`
	SourceOrigin SourceOrigin `db:"source_origin" json:"sourceOrigin"`
	ExternalRef  *string      `db:"external_ref" json:"externalRef,omitempty"`
	Version      int          `db:"version" json:"version"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}

// AllDay reports whether the shift has no clock range.
func (s *Shift) AllDay() bool {
	return s.StartTime == nil && s.EndTime == nil
}

// DateRange bounds a schedule query, inclusive of both days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.From) && !day.After(r.To)
}

// ShiftFilter constrains schedule listing queries.
type ShiftFilter struct {
	OwnerID      string
	Range        DateRange
	SourceOrigin SourceOrigin
	Limit        int
	Offset       int
}
