package dto

import (
	"time"

	"github.com/noah-isme/lms-availability-api/internal/availability"
)

// WindowInfo describes one configured work window.
type WindowInfo struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// MonthGridResponse is returned by GET /calendars/:calendarId/availability/month.
type MonthGridResponse struct {
	CalendarID string                         `json:"calendarId"`
	Year       int                            `json:"year"`
	Month      int                            `json:"month"`
	Timezone   string                         `json:"timezone"`
	Today      availability.Date              `json:"today"`
	Windows    []WindowInfo                   `json:"windows"`
	Days       []availability.DayAvailability `json:"days"`
}

// SlotResponse is one free span or the all-day busy placeholder.
type SlotResponse struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Busy            bool      `json:"busy"`
	DurationMinutes int       `json:"durationMinutes"`
}

// IntervalResponse is one clipped busy span.
type IntervalResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DaySlotsResponse is returned by GET /calendars/:calendarId/availability/day.
type DaySlotsResponse struct {
	CalendarID string                       `json:"calendarId"`
	Date       availability.Date            `json:"date"`
	Timezone   string                       `json:"timezone"`
	Window     WindowInfo                   `json:"window"`
	Day        availability.DayAvailability `json:"day"`
	FreeSlots  []SlotResponse               `json:"freeSlots"`
	Busy       []IntervalResponse           `json:"busy"`
}
