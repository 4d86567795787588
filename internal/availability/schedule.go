package availability

import (
	"errors"
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses an HH:MM value.
func ParseClock(raw string) (ClockTime, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MarshalText encodes the clock time as HH:MM.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes an HH:MM clock time.
func (c *ClockTime) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// WorkWindow is a named time-of-day range evaluated independently on every day.
type WorkWindow struct {
	Name  string    `json:"name" yaml:"name"`
	Start ClockTime `json:"start" yaml:"start"`
	End   ClockTime `json:"end" yaml:"end"`
}

// On returns the absolute span of the window on the given date.
func (w WorkWindow) On(date Date, loc *time.Location) Interval {
	midnight := date.Midnight(loc)
	return Interval{
		Start: time.Date(midnight.Year(), midnight.Month(), midnight.Day(), w.Start.Hour, w.Start.Minute, 0, 0, midnight.Location()),
		End:   time.Date(midnight.Year(), midnight.Month(), midnight.Day(), w.End.Hour, w.End.Minute, 0, 0, midnight.Location()),
	}
}

// Schedule is the fixed daily layout the engine evaluates against.
type Schedule struct {
	// Windows are the per-day buckets used by the month grid and exports.
	Windows []WorkWindow
	// FullWindow bounds the free-slot computation for a single day.
	FullWindow WorkWindow
	Location   *time.Location
}

// DefaultSchedule returns a morning/afternoon split of a 09:00-18:00 working day.
func DefaultSchedule(loc *time.Location) Schedule {
	if loc == nil {
		loc = time.Local
	}
	return Schedule{
		Windows: []WorkWindow{
			{Name: "morning", Start: ClockTime{Hour: 9}, End: ClockTime{Hour: 13}},
			{Name: "afternoon", Start: ClockTime{Hour: 14}, End: ClockTime{Hour: 18}},
		},
		FullWindow: WorkWindow{Name: "day", Start: ClockTime{Hour: 9}, End: ClockTime{Hour: 18}},
		Location:   loc,
	}
}

// Validate checks that every window is non-empty and names are unique.
func (s Schedule) Validate() error {
	if len(s.Windows) == 0 {
		return errors.New("schedule requires at least one window")
	}
	seen := make(map[string]struct{}, len(s.Windows))
	for _, w := range append([]WorkWindow{s.FullWindow}, s.Windows...) {
		if w.Name == "" {
			return errors.New("schedule window name is required")
		}
		if w.End.minutes() <= w.Start.minutes() {
			return fmt.Errorf("window %s must end after it starts", w.Name)
		}
	}
	for _, w := range s.Windows {
		if _, ok := seen[w.Name]; ok {
			return fmt.Errorf("duplicate window %s", w.Name)
		}
		seen[w.Name] = struct{}{}
	}
	return nil
}

// WindowNames lists the configured per-day windows in order.
func (s Schedule) WindowNames() []string {
	names := make([]string, len(s.Windows))
	for i, w := range s.Windows {
		names[i] = w.Name
	}
	return names
}
