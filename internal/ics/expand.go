package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-availability-api/internal/availability"
)

const defaultMaxOccurrences = 2000

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	RangeStart     time.Time
	RangeEnd       time.Time
	MaxOccurrences int
	Logger         *zap.Logger
}

// Expand turns parsed events into raw availability events that intersect the range. Recurring
// events are expanded with their RRULE and EXDATEs; all-day events spanning several days yield one
// entry per date.
func Expand(events []ParsedEvent, cfg ExpandConfig) ([]availability.RawEvent, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: range end is before range start")
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	out := make([]availability.RawEvent, 0, len(events))
	for _, ev := range events {
		starts := []time.Time{ev.Start}
		if ev.RawRRule != "" {
			occ, err := occurrences(ev, cfg)
			if err != nil {
				cfg.Logger.Warn("skipping event with invalid RRULE", zap.String("uid", ev.UID), zap.String("rrule", ev.RawRRule), zap.Error(err))
				continue
			}
			starts = occ
		}
		duration := ev.End.Sub(ev.Start)
		for _, start := range starts {
			end := start.Add(duration)
			if !start.Before(cfg.RangeEnd) || !end.After(cfg.RangeStart) {
				continue
			}
			out = append(out, toRaw(ev, start, end)...)
		}
	}
	return out, nil
}

func occurrences(ev ParsedEvent, cfg ExpandConfig) ([]time.Time, error) {
	rule, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, err
	}
	rule.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound so occurrences that began before the range but still overlap it are kept.
	from := cfg.RangeStart.Add(-ev.End.Sub(ev.Start)).In(ev.Start.Location())
	to := cfg.RangeEnd.In(ev.Start.Location())
	times := set.Between(from, to, true)
	if len(times) > cfg.MaxOccurrences {
		cfg.Logger.Warn("truncating recurrence expansion", zap.String("uid", ev.UID), zap.Int("cap", cfg.MaxOccurrences))
		times = times[:cfg.MaxOccurrences]
	}
	return times, nil
}

func toRaw(ev ParsedEvent, start, end time.Time) []availability.RawEvent {
	if !ev.AllDay {
		s, e := start, end
		return []availability.RawEvent{{Start: &s, End: &e, Title: ev.Summary, Location: ev.Location}}
	}
	first := availability.DateOf(start, start.Location())
	last := availability.DateOf(end, end.Location()).AddDays(-1)
	if last.Before(first) {
		last = first
	}
	out := make([]availability.RawEvent, 0, availability.DaysBetween(first, last))
	for d := first; !last.Before(d); d = d.AddDays(1) {
		date := d
		out = append(out, availability.RawEvent{AllDay: true, Date: &date, Title: ev.Summary, Location: ev.Location})
	}
	return out
}
