package models

import (
	"time"

	"github.com/noah-isme/lms-availability-api/internal/availability"
)

// CalendarEvent is one busy period on a trainer or classroom calendar.
// All-day rows carry EventDate; timed rows carry StartAt and EndAt.
type CalendarEvent struct {
	ID          string     `db:"id" json:"id"`
	CalendarID  string     `db:"calendar_id" json:"calendar_id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	AllDay      bool       `db:"all_day" json:"all_day"`
	EventDate   *time.Time `db:"event_date" json:"event_date,omitempty"`
	StartAt     *time.Time `db:"start_at" json:"start_at,omitempty"`
	EndAt       *time.Time `db:"end_at" json:"end_at,omitempty"`
	Location    *string    `db:"location" json:"location,omitempty"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Raw converts the stored row into engine input. event_date is a DATE column, read back as UTC midnight.
func (e CalendarEvent) Raw() availability.RawEvent {
	raw := availability.RawEvent{AllDay: e.AllDay, Title: e.Title}
	if e.Location != nil {
		raw.Location = *e.Location
	}
	if e.AllDay {
		if e.EventDate != nil {
			d := availability.DateOf(*e.EventDate, time.UTC)
			raw.Date = &d
		}
		return raw
	}
	raw.Start = e.StartAt
	raw.End = e.EndAt
	return raw
}

// CalendarFilter narrows down events of one calendar.
type CalendarFilter struct {
	CalendarID string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}
