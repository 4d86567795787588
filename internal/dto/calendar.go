package dto

import "time"

// CalendarEventRequest captures create and update payloads for calendar events.
type CalendarEventRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	AllDay      bool       `json:"allDay"`
	Date        *string    `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartAt     *time.Time `json:"startAt,omitempty"`
	EndAt       *time.Time `json:"endAt,omitempty"`
	Location    *string    `json:"location,omitempty" validate:"omitempty,max=200"`
}

// CalendarEventQuery captures list filters from the query string.
type CalendarEventQuery struct {
	From     string
	To       string
	Page     int
	PageSize int
}
