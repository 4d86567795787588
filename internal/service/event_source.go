package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-availability-api/internal/availability"
	"github.com/noah-isme/lms-availability-api/internal/models"
	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
)

// EventSource returns the busy events of a calendar that can touch [start, end).
type EventSource interface {
	ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]availability.RawEvent, error)
}

type calendarRangeReader interface {
	ListRange(ctx context.Context, calendarID string, start, end time.Time) ([]models.CalendarEvent, error)
}

// CalendarEventSource reads events stored in Postgres.
type CalendarEventSource struct {
	repo calendarRangeReader
}

// NewCalendarEventSource constructs the database-backed source.
func NewCalendarEventSource(repo calendarRangeReader) *CalendarEventSource {
	return &CalendarEventSource{repo: repo}
}

// ListEvents converts stored rows into engine input.
func (s *CalendarEventSource) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]availability.RawEvent, error) {
	rows, err := s.repo.ListRange(ctx, calendarID, start, end)
	if err != nil {
		return nil, err
	}
	raw := make([]availability.RawEvent, 0, len(rows))
	for _, row := range rows {
		raw = append(raw, row.Raw())
	}
	return raw, nil
}

// NamedSource labels a source for logs and metrics.
type NamedSource struct {
	Name   string
	Source EventSource
}

// MultiEventSource concatenates several sources in order. Any failure aborts the whole fetch so
// callers never compute availability from a partial event list.
type MultiEventSource struct {
	sources []NamedSource
	metrics *MetricsService
	logger  *zap.Logger
}

// NewMultiEventSource constructs the combined source.
func NewMultiEventSource(metrics *MetricsService, logger *zap.Logger, sources ...NamedSource) *MultiEventSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiEventSource{sources: sources, metrics: metrics, logger: logger}
}

// ListEvents fetches from every source. Errors are returned as ErrUpstream.
func (m *MultiEventSource) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]availability.RawEvent, error) {
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, fmt.Sprintf("range start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}
	var all []availability.RawEvent
	for _, src := range m.sources {
		began := time.Now()
		events, err := src.Source.ListEvents(ctx, calendarID, start, end)
		m.metrics.ObserveEventSource(src.Name, err, time.Since(began))
		if err != nil {
			m.logger.Error("event source failed",
				zap.String("source", src.Name),
				zap.String("calendar_id", calendarID),
				zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("failed to fetch events from %s", src.Name))
		}
		all = append(all, events...)
	}
	return all, nil
}
