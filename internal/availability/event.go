package availability

import "time"

// Interval is a closed-open span of time. Overlap is strict: touching endpoints do not overlap.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether i and other share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Clip bounds i to the limits of other.
func (i Interval) Clip(other Interval) Interval {
	out := i
	if out.Start.Before(other.Start) {
		out.Start = other.Start
	}
	if out.End.After(other.End) {
		out.End = other.End
	}
	return out
}

// EventKind distinguishes timed events from all-day events.
type EventKind int

const (
	KindTimed EventKind = iota
	KindAllDay
)

// Event is a normalized busy period.
type Event struct {
	Kind     EventKind
	Date     Date // AllDay only
	Start    time.Time
	End      time.Time
	Title    string
	Location string
}

// Interval returns the timed span of the event.
func (e Event) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}

// IsAllDay reports the all-day variant.
func (e Event) IsAllDay() bool {
	return e.Kind == KindAllDay
}

// OnDate reports whether the event belongs to the given date. Timed events are matched by the
// local date of their start instant.
func (e Event) OnDate(date Date, loc *time.Location) bool {
	if e.IsAllDay() {
		return e.Date == date
	}
	return DateOf(e.Start, loc) == date
}

// RawEvent is an event as delivered by an event source, before validation.
type RawEvent struct {
	AllDay   bool       `json:"all_day"`
	Date     *Date      `json:"date,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Title    string     `json:"title,omitempty"`
	Location string     `json:"location,omitempty"`
}

// Normalize converts raw events into Events. Entries missing the fields their variant requires are
// dropped without error, as are timed entries ending before they start.
func Normalize(raw []RawEvent, loc *time.Location) []Event {
	if loc == nil {
		loc = time.UTC
	}
	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		if r.AllDay {
			if r.Date == nil || r.Date.IsZero() {
				continue
			}
			events = append(events, Event{Kind: KindAllDay, Date: *r.Date, Title: r.Title, Location: r.Location})
			continue
		}
		if r.Start == nil || r.End == nil || r.Start.IsZero() || r.End.IsZero() {
			continue
		}
		if r.End.Before(*r.Start) {
			continue
		}
		events = append(events, Event{
			Kind:     KindTimed,
			Start:    r.Start.In(loc),
			End:      r.End.In(loc),
			Title:    r.Title,
			Location: r.Location,
		})
	}
	return events
}
