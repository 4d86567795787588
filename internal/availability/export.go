package availability

import "fmt"

// Export statuses.
const (
	StatusFree           = "FREE"
	StatusOccupied       = "OCCUPIED"
	StatusOccupiedAllDay = "OCCUPIED (all day)"
	StatusWeekend        = "WEEKEND"
)

// RangeError reports an unusable export range.
type RangeError struct {
	From   Date
	To     Date
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range %s..%s: %s", e.From, e.To, e.Reason)
}

// ExportRow is one tabular row: date, weekday and a status per configured window.
type ExportRow struct {
	Date     Date     `json:"date"`
	Weekday  string   `json:"weekday"`
	Statuses []string `json:"statuses"`
}

// ExportHeaders returns the column order for export rows.
func (e *Engine) ExportHeaders() []string {
	return append([]string{"Date", "Weekday"}, e.schedule.WindowNames()...)
}

// ExportRange builds one row per date in [from, to]. Weekend dates are reported as WEEKEND
// without evaluating events.
func (e *Engine) ExportRange(from, to Date, events []Event) ([]ExportRow, error) {
	if from.IsZero() || to.IsZero() {
		return nil, &RangeError{From: from, To: to, Reason: "both dates are required"}
	}
	if to.Before(from) {
		return nil, &RangeError{From: from, To: to, Reason: "end date is before start date"}
	}

	rows := make([]ExportRow, 0)
	for date := from; !to.Before(date); date = date.AddDays(1) {
		row := ExportRow{
			Date:     date,
			Weekday:  date.Weekday().String(),
			Statuses: make([]string, len(e.schedule.Windows)),
		}
		if date.IsWeekend() {
			for i := range row.Statuses {
				row.Statuses[i] = StatusWeekend
			}
			rows = append(rows, row)
			continue
		}
		windows := e.emptyWindows()
		e.fillWindows(windows, date, events)
		for i, w := range windows {
			row.Statuses[i] = statusOf(w)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func statusOf(w WindowStatus) string {
	switch {
	case w.AllDay:
		return StatusOccupiedAllDay
	case w.Occupied():
		return StatusOccupied
	default:
		return StatusFree
	}
}

// DaysBetween counts the dates in [from, to].
func DaysBetween(from, to Date) int {
	return int(to.Midnight(nil).Sub(from.Midnight(nil)).Hours()/24) + 1
}
