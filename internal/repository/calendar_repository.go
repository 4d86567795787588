package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-availability-api/internal/models"
)

const calendarEventColumns = `id, calendar_id, title, description, all_day, event_date, start_at, end_at, location, created_by, created_at, updated_at`

// CalendarRepository persists calendar events.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// ListRange returns every event of the calendar that can touch [start, end). Timed events are
// matched by instant overlap, all-day events by date in the location of start.
func (r *CalendarRepository) ListRange(ctx context.Context, calendarID string, start, end time.Time) ([]models.CalendarEvent, error) {
	firstDay := start.Format("2006-01-02")
	lastDay := end.Add(-time.Nanosecond).In(start.Location()).Format("2006-01-02")
	query := `SELECT ` + calendarEventColumns + `
FROM calendar_events
WHERE calendar_id = $1
  AND ((all_day = FALSE AND start_at < $3 AND end_at > $2)
    OR (all_day = TRUE AND event_date >= $4 AND event_date <= $5))
ORDER BY COALESCE(start_at, event_date::timestamptz) ASC, id ASC`
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, calendarID, start, end, firstDay, lastDay); err != nil {
		return nil, fmt.Errorf("list calendar events in range: %w", err)
	}
	return events, nil
}

// List returns a page of calendar events matching filters.
func (r *CalendarRepository) List(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, int, error) {
	where := []string{"calendar_id = $1"}
	args := []interface{}{filter.CalendarID}
	if filter.StartDate != nil {
		where = append(where, fmt.Sprintf("COALESCE(end_at, event_date + INTERVAL '1 day') >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, fmt.Sprintf("COALESCE(start_at, event_date::timestamptz) <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
FROM calendar_events WHERE %s ORDER BY COALESCE(start_at, event_date::timestamptz) ASC, id ASC LIMIT %d OFFSET %d`, calendarEventColumns, whereClause, size, offset)
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list calendar events: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM calendar_events WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count calendar events: %w", err)
	}
	return events, total, nil
}

// GetByID fetches one event of a calendar. Missing rows surface as sql.ErrNoRows.
func (r *CalendarRepository) GetByID(ctx context.Context, calendarID, id string) (*models.CalendarEvent, error) {
	query := `SELECT ` + calendarEventColumns + ` FROM calendar_events WHERE calendar_id = $1 AND id = $2`
	var event models.CalendarEvent
	if err := r.db.GetContext(ctx, &event, query, calendarID, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a calendar event.
func (r *CalendarRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO calendar_events (id, calendar_id, title, description, all_day, event_date, start_at, end_at, location, created_by, created_at, updated_at)
VALUES (:id, :calendar_id, :title, :description, :all_day, :event_date, :start_at, :end_at, :location, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// Update modifies an event in place. Returns sql.ErrNoRows when nothing matched.
func (r *CalendarRepository) Update(ctx context.Context, event *models.CalendarEvent) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE calendar_events SET title = :title, description = :description, all_day = :all_day, event_date = :event_date,
start_at = :start_at, end_at = :end_at, location = :location, updated_at = :updated_at
WHERE calendar_id = :calendar_id AND id = :id`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update calendar event: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an event. Returns sql.ErrNoRows when nothing matched.
func (r *CalendarRepository) Delete(ctx context.Context, calendarID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM calendar_events WHERE calendar_id = $1 AND id = $2", calendarID, id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
