package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-availability-api/internal/availability"
	"github.com/noah-isme/lms-availability-api/internal/dto"
	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
)

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// AvailabilityService answers month-grid and free-slot queries for a calendar.
type AvailabilityService struct {
	engine  *availability.Engine
	source  EventSource
	cache   availabilityCache
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewAvailabilityService constructs the service. cache and metrics may be nil.
func NewAvailabilityService(engine *availability.Engine, source EventSource, cache availabilityCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		engine:  engine,
		source:  source,
		cache:   cache,
		metrics: metrics,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Today returns the current date in the schedule's zone.
func (s *AvailabilityService) Today() availability.Date {
	return availability.DateOf(s.now(), s.engine.Location())
}

// Month classifies every day of the month. The second return value reports a cache hit.
func (s *AvailabilityService) Month(ctx context.Context, calendarID string, year, month int) (*dto.MonthGridResponse, bool, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "calendarId is required")
	}
	if month < 1 || month > 12 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}

	today := s.Today()
	key := AvailabilityCacheKey(calendarID, "month", fmt.Sprintf("%04d-%02d", year, month), today.String())
	var cached dto.MonthGridResponse
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	loc := s.engine.Location()
	first := availability.Date{Year: year, Month: time.Month(month), Day: 1}
	start := first.Midnight(loc)
	end := first.AddDays(availability.DaysIn(year, time.Month(month))).Midnight(loc)

	events, err := s.fetch(ctx, calendarID, start, end)
	if err != nil {
		return nil, false, err
	}
	days, err := s.engine.MonthGrid(year, time.Month(month), events, today)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	s.metrics.IncComputation("month")

	resp := &dto.MonthGridResponse{
		CalendarID: calendarID,
		Year:       year,
		Month:      month,
		Timezone:   loc.String(),
		Today:      today,
		Windows:    s.windowInfo(),
		Days:       days,
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, resp, s.ttl)
	}
	return resp, false, nil
}

// Day returns the free slots of the full work window on date along with its classification.
func (s *AvailabilityService) Day(ctx context.Context, calendarID, rawDate string) (*dto.DaySlotsResponse, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "calendarId is required")
	}
	date, err := availability.ParseDate(rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	loc := s.engine.Location()
	events, err := s.fetch(ctx, calendarID, date.Midnight(loc), date.AddDays(1).Midnight(loc))
	if err != nil {
		return nil, err
	}
	s.metrics.IncComputation("day")

	slots := s.engine.FreeSlots(date, events)
	free := make([]dto.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		free = append(free, dto.SlotResponse{
			Start:           slot.Start,
			End:             slot.End,
			Busy:            slot.Busy,
			DurationMinutes: int(slot.End.Sub(slot.Start) / time.Minute),
		})
	}
	busy := make([]dto.IntervalResponse, 0)
	for _, span := range s.engine.BusyIntervals(date, events) {
		busy = append(busy, dto.IntervalResponse{Start: span.Start, End: span.End})
	}

	full := s.engine.Schedule().FullWindow
	return &dto.DaySlotsResponse{
		CalendarID: calendarID,
		Date:       date,
		Timezone:   loc.String(),
		Window:     dto.WindowInfo{Name: full.Name, Start: full.Start.String(), End: full.End.String()},
		Day:        s.engine.ClassifyDay(date, events, s.Today()),
		FreeSlots:  free,
		Busy:       busy,
	}, nil
}

func (s *AvailabilityService) fetch(ctx context.Context, calendarID string, start, end time.Time) ([]availability.Event, error) {
	raw, err := s.source.ListEvents(ctx, calendarID, start, end)
	if err != nil {
		s.logger.Warn("event fetch failed", zap.String("calendar_id", calendarID), zap.Error(err))
		return nil, err
	}
	return availability.Normalize(raw, s.engine.Location()), nil
}

func (s *AvailabilityService) windowInfo() []dto.WindowInfo {
	windows := s.engine.Schedule().Windows
	out := make([]dto.WindowInfo, 0, len(windows))
	for _, w := range windows {
		out = append(out, dto.WindowInfo{Name: w.Name, Start: w.Start.String(), End: w.End.String()})
	}
	return out
}
