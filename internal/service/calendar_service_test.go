package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-availability-api/internal/dto"
	"github.com/noah-isme/lms-availability-api/internal/models"
	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
)

type calendarRepoStub struct {
	events    map[string]*models.CalendarEvent
	lastList  models.CalendarFilter
	createErr error
	deleted   []string
}

func newCalendarRepoStub(events ...*models.CalendarEvent) *calendarRepoStub {
	stub := &calendarRepoStub{events: map[string]*models.CalendarEvent{}}
	for _, e := range events {
		stub.events[e.ID] = e
	}
	return stub
}

func (s *calendarRepoStub) List(_ context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, int, error) {
	s.lastList = filter
	out := make([]models.CalendarEvent, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (s *calendarRepoStub) GetByID(_ context.Context, calendarID, id string) (*models.CalendarEvent, error) {
	e, ok := s.events[id]
	if !ok || e.CalendarID != calendarID {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (s *calendarRepoStub) Create(_ context.Context, event *models.CalendarEvent) error {
	if s.createErr != nil {
		return s.createErr
	}
	event.ID = "ev-new"
	s.events[event.ID] = event
	return nil
}

func (s *calendarRepoStub) Update(_ context.Context, event *models.CalendarEvent) error {
	s.events[event.ID] = event
	return nil
}

func (s *calendarRepoStub) Delete(_ context.Context, _ string, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.events, id)
	return nil
}

type invalidationRecorder struct {
	calendars []string
}

func (r *invalidationRecorder) InvalidateCalendar(_ context.Context, calendarID string) error {
	r.calendars = append(r.calendars, calendarID)
	return nil
}

func strPtr(s string) *string { return &s }

var (
	adminActor   = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	trainerActor = &models.JWTClaims{UserID: "trainer-1", Role: models.RoleTrainer}
)

func TestCalendarServiceCreateTimedEvent(t *testing.T) {
	repo := newCalendarRepoStub()
	cache := &invalidationRecorder{}
	svc := NewCalendarService(repo, cache, nil, nil)

	loc := time.FixedZone("WIB", 7*3600)
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, loc)
	end := start.Add(90 * time.Minute)
	event, err := svc.Create(context.Background(), "cal-1", dto.CalendarEventRequest{Title: "  Session  ", StartAt: &start, EndAt: &end}, trainerActor)
	require.NoError(t, err)

	assert.Equal(t, "Session", event.Title)
	assert.Equal(t, "trainer-1", event.CreatedBy)
	assert.Equal(t, time.UTC, event.StartAt.Location())
	assert.True(t, event.StartAt.Equal(start))
	assert.Nil(t, event.EventDate)
	assert.Equal(t, []string{"cal-1"}, cache.calendars)
}

func TestCalendarServiceCreateAllDayEvent(t *testing.T) {
	repo := newCalendarRepoStub()
	svc := NewCalendarService(repo, nil, nil, nil)

	start := time.Now()
	event, err := svc.Create(context.Background(), "cal-1", dto.CalendarEventRequest{Title: "Holiday", AllDay: true, Date: strPtr("2025-03-14"), StartAt: &start}, adminActor)
	require.NoError(t, err)
	require.NotNil(t, event.EventDate)
	assert.Equal(t, "2025-03-14", event.EventDate.Format("2006-01-02"))
	assert.Nil(t, event.StartAt)
}

func TestCalendarServiceCreateValidation(t *testing.T) {
	svc := NewCalendarService(newCalendarRepoStub(), nil, nil, nil)
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	before := start.Add(-time.Minute)

	cases := map[string]dto.CalendarEventRequest{
		"missing title":     {Title: "   ", StartAt: &start, EndAt: &start},
		"all day no date":   {Title: "x", AllDay: true},
		"bad date":          {Title: "x", AllDay: true, Date: strPtr("14/03/2025")},
		"timed no end":      {Title: "x", StartAt: &start},
		"end before start":  {Title: "x", StartAt: &start, EndAt: &before},
		"zero length event": {Title: "x", StartAt: &start, EndAt: &start},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "cal-1", req, adminActor)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
		})
	}
}

func TestCalendarServiceTrainerOwnership(t *testing.T) {
	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	repo := newCalendarRepoStub(&models.CalendarEvent{ID: "ev-1", CalendarID: "cal-1", Title: "Other", StartAt: &start, EndAt: &end, CreatedBy: "trainer-2"})
	cache := &invalidationRecorder{}
	svc := NewCalendarService(repo, cache, nil, nil)

	_, err := svc.Update(context.Background(), "cal-1", "ev-1", dto.CalendarEventRequest{Title: "Mine", StartAt: &start, EndAt: &end}, trainerActor)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	err = svc.Delete(context.Background(), "cal-1", "ev-1", trainerActor)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)
	assert.Empty(t, cache.calendars)

	require.NoError(t, svc.Delete(context.Background(), "cal-1", "ev-1", adminActor))
	assert.Equal(t, []string{"ev-1"}, repo.deleted)
	assert.Equal(t, []string{"cal-1"}, cache.calendars)
}

func TestCalendarServiceNotFoundAcrossCalendars(t *testing.T) {
	repo := newCalendarRepoStub(&models.CalendarEvent{ID: "ev-1", CalendarID: "cal-1"})
	svc := NewCalendarService(repo, nil, nil, nil)

	_, err := svc.Get(context.Background(), "cal-2", "ev-1")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestCalendarServiceListFilters(t *testing.T) {
	repo := newCalendarRepoStub()
	svc := NewCalendarService(repo, nil, nil, nil)

	_, pagination, err := svc.List(context.Background(), "cal-1", dto.CalendarEventQuery{From: "2025-03-01", To: "2025-03-31", PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, pagination.PageSize)
	require.NotNil(t, repo.lastList.EndDate)
	assert.Equal(t, 31, repo.lastList.EndDate.Day())

	_, _, err = svc.List(context.Background(), "cal-1", dto.CalendarEventQuery{From: "2025-03-31", To: "2025-03-01"})
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}

func TestCalendarServiceCreateRepositoryFailure(t *testing.T) {
	repo := newCalendarRepoStub()
	repo.createErr = errors.New("insert failed")
	svc := NewCalendarService(repo, nil, nil, nil)

	start := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	_, err := svc.Create(context.Background(), "cal-1", dto.CalendarEventRequest{Title: "x", StartAt: &start, EndAt: &end}, adminActor)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}
