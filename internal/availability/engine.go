package availability

import (
	"fmt"
	"sort"
	"time"
)

const (
	// AllDayLabel marks a window blocked by an all-day event.
	AllDayLabel = "all day"

	labelClock = "15:04"
)

// WindowStatus carries the busy labels of one work window on one day.
type WindowStatus struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
	AllDay bool     `json:"all_day"`
}

// Occupied reports whether any event overlaps the window.
func (w WindowStatus) Occupied() bool {
	return len(w.Labels) > 0
}

// DayAvailability summarises one calendar day for month-grid rendering.
type DayAvailability struct {
	Date      Date           `json:"date"`
	IsWeekend bool           `json:"is_weekend"`
	IsPast    bool           `json:"is_past"`
	IsToday   bool           `json:"is_today"`
	Computed  bool           `json:"computed"`
	Windows   []WindowStatus `json:"windows"`
}

// FreeSlot is a maximal free span within the full work window. Busy marks the whole-day
// placeholder returned when an all-day event blocks the day.
type FreeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Busy  bool      `json:"busy"`
}

// Engine evaluates events against a fixed daily schedule. It holds no mutable state.
type Engine struct {
	schedule Schedule
}

// NewEngine validates the schedule and returns an engine.
func NewEngine(schedule Schedule) (*Engine, error) {
	if schedule.Location == nil {
		schedule.Location = time.Local
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return &Engine{schedule: schedule}, nil
}

// Schedule returns the engine's schedule.
func (e *Engine) Schedule() Schedule {
	return e.schedule
}

// Location returns the timezone days are evaluated in.
func (e *Engine) Location() *time.Location {
	return e.schedule.Location
}

// ClassifyDay evaluates every configured window for date. Weekend and past days are flagged but
// left uncomputed.
func (e *Engine) ClassifyDay(date Date, events []Event, today Date) DayAvailability {
	day := DayAvailability{
		Date:      date,
		IsWeekend: date.IsWeekend(),
		IsPast:    date.Before(today),
		IsToday:   date == today,
		Windows:   e.emptyWindows(),
	}
	if day.IsWeekend || day.IsPast {
		return day
	}
	day.Computed = true
	e.fillWindows(day.Windows, date, events)
	return day
}

// fillWindows appends labels to each window in place.
func (e *Engine) fillWindows(windows []WindowStatus, date Date, events []Event) {
	loc := e.schedule.Location
	for _, ev := range events {
		if ev.IsAllDay() && ev.OnDate(date, loc) {
			for i := range windows {
				windows[i].Labels = []string{AllDayLabel}
				windows[i].AllDay = true
			}
			return
		}
	}

	for i, w := range e.schedule.Windows {
		span := w.On(date, loc)
		for _, ev := range events {
			if ev.IsAllDay() || !ev.OnDate(date, loc) {
				continue
			}
			if ev.Interval().Overlaps(span) {
				windows[i].Labels = append(windows[i].Labels, formatLabel(ev, loc))
			}
		}
	}
}

func (e *Engine) emptyWindows() []WindowStatus {
	windows := make([]WindowStatus, len(e.schedule.Windows))
	for i, w := range e.schedule.Windows {
		windows[i] = WindowStatus{Name: w.Name, Labels: []string{}}
	}
	return windows
}

func formatLabel(ev Event, loc *time.Location) string {
	return ev.Start.In(loc).Format(labelClock) + "-" + ev.End.In(loc).Format(labelClock)
}

// FreeSlots returns the free spans of the full work window on date using a cursor sweep over the
// overlapping events sorted by start.
func (e *Engine) FreeSlots(date Date, events []Event) []FreeSlot {
	loc := e.schedule.Location
	window := e.schedule.FullWindow.On(date, loc)

	for _, ev := range events {
		if ev.IsAllDay() && ev.OnDate(date, loc) {
			return []FreeSlot{{Start: window.Start, End: window.End, Busy: true}}
		}
	}

	busy := make([]Interval, 0, len(events))
	for _, ev := range events {
		if ev.IsAllDay() {
			continue
		}
		if span := ev.Interval(); span.Start.Before(span.End) && span.Overlaps(window) {
			busy = append(busy, span)
		}
	}
	sort.SliceStable(busy, func(i, j int) bool {
		if busy[i].Start.Equal(busy[j].Start) {
			return busy[i].End.Before(busy[j].End)
		}
		return busy[i].Start.Before(busy[j].Start)
	})

	slots := make([]FreeSlot, 0, len(busy)+1)
	cursor := window.Start
	for _, span := range busy {
		clipped := span.Clip(window)
		if clipped.Start.After(cursor) {
			slots = append(slots, FreeSlot{Start: cursor, End: clipped.Start})
		}
		if clipped.End.After(cursor) {
			cursor = clipped.End
		}
	}
	if cursor.Before(window.End) {
		slots = append(slots, FreeSlot{Start: cursor, End: window.End})
	}
	return slots
}

// BusyIntervals returns the clipped busy spans of the full work window on date, in start order.
func (e *Engine) BusyIntervals(date Date, events []Event) []Interval {
	loc := e.schedule.Location
	window := e.schedule.FullWindow.On(date, loc)
	out := make([]Interval, 0)
	for _, ev := range events {
		if ev.IsAllDay() {
			if ev.OnDate(date, loc) {
				return []Interval{window}
			}
			continue
		}
		if span := ev.Interval(); span.Start.Before(span.End) && span.Overlaps(window) {
			out = append(out, span.Clip(window))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// MonthGrid returns one DayAvailability per day of the month, in day order.
func (e *Engine) MonthGrid(year int, month time.Month, events []Event, today Date) ([]DayAvailability, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	days := DaysIn(year, month)
	grid := make([]DayAvailability, 0, days)
	for d := 1; d <= days; d++ {
		grid = append(grid, e.ClassifyDay(Date{Year: year, Month: month, Day: d}, events, today))
	}
	return grid, nil
}
