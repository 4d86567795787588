package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-availability-api/internal/dto"
	"github.com/noah-isme/lms-availability-api/internal/models"
	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
)

type calendarRepository interface {
	List(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, int, error)
	GetByID(ctx context.Context, calendarID, id string) (*models.CalendarEvent, error)
	Create(ctx context.Context, event *models.CalendarEvent) error
	Update(ctx context.Context, event *models.CalendarEvent) error
	Delete(ctx context.Context, calendarID, id string) error
}

type calendarCacheInvalidator interface {
	InvalidateCalendar(ctx context.Context, calendarID string) error
}

// CalendarService manages the busy events of a calendar.
type CalendarService struct {
	repo      calendarRepository
	cache     calendarCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(repo calendarRepository, cache calendarCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns a page of a calendar's events.
func (s *CalendarService) List(ctx context.Context, calendarID string, query dto.CalendarEventQuery) ([]models.CalendarEvent, *models.Pagination, error) {
	filter := models.CalendarFilter{CalendarID: calendarID, Page: query.Page, PageSize: query.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	if query.From != "" {
		from, err := time.Parse("2006-01-02", query.From)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
		}
		filter.StartDate = &from
	}
	if query.To != "" {
		to, err := time.Parse("2006-01-02", query.To)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &to
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidRange, "to must be on or after from")
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendar events")
	}
	return events, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a calendar event by id.
func (s *CalendarService) Get(ctx context.Context, calendarID, id string) (*models.CalendarEvent, error) {
	event, err := s.repo.GetByID(ctx, calendarID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get event")
	}
	return event, nil
}

// Create registers a new event on the calendar.
func (s *CalendarService) Create(ctx context.Context, calendarID string, req dto.CalendarEventRequest, actor *models.JWTClaims) (*models.CalendarEvent, error) {
	event := &models.CalendarEvent{CalendarID: calendarID, CreatedBy: actor.UserID}
	if err := s.apply(event, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.invalidate(ctx, calendarID)
	return event, nil
}

// Update replaces an event's fields. Trainers may only edit events they created.
func (s *CalendarService) Update(ctx context.Context, calendarID, id string, req dto.CalendarEventRequest, actor *models.JWTClaims) (*models.CalendarEvent, error) {
	event, err := s.Get(ctx, calendarID, id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwnership(event, actor); err != nil {
		return nil, err
	}
	if err := s.apply(event, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidate(ctx, calendarID)
	return event, nil
}

// Delete removes a calendar event. Trainers may only delete events they created.
func (s *CalendarService) Delete(ctx context.Context, calendarID, id string, actor *models.JWTClaims) error {
	event, err := s.Get(ctx, calendarID, id)
	if err != nil {
		return err
	}
	if err := ensureOwnership(event, actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, calendarID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.invalidate(ctx, calendarID)
	return nil
}

// apply validates req and copies it onto event. All-day events keep only the date, timed events
// only the instants.
func (s *CalendarService) apply(event *models.CalendarEvent, req dto.CalendarEventRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Location = req.Location
	event.AllDay = req.AllDay
	if req.AllDay {
		if req.Date == nil || *req.Date == "" {
			return appErrors.Clone(appErrors.ErrValidation, "date is required for all-day events")
		}
		day, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		event.EventDate = &day
		event.StartAt, event.EndAt = nil, nil
		return nil
	}

	if req.StartAt == nil || req.EndAt == nil {
		return appErrors.Clone(appErrors.ErrValidation, "startAt and endAt are required for timed events")
	}
	if !req.EndAt.After(*req.StartAt) {
		return appErrors.Clone(appErrors.ErrValidation, "endAt must be after startAt")
	}
	start, end := req.StartAt.UTC(), req.EndAt.UTC()
	event.StartAt, event.EndAt = &start, &end
	event.EventDate = nil
	return nil
}

func (s *CalendarService) invalidate(ctx context.Context, calendarID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCalendar(ctx, calendarID); err != nil {
		s.logger.Warn("availability cache not invalidated", zap.String("calendar_id", calendarID), zap.Error(err))
	}
}

func ensureOwnership(event *models.CalendarEvent, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleTrainer && event.CreatedBy != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "trainers can only modify their own events")
	}
	return nil
}
