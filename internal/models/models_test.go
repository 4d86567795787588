package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-availability-api/internal/availability"
)

func TestCalendarEventRaw(t *testing.T) {
	day := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	loc := "Room 4"
	allDay := CalendarEvent{Title: "Holiday", AllDay: true, EventDate: &day, Location: &loc}
	raw := allDay.Raw()
	require.NotNil(t, raw.Date)
	assert.Equal(t, availability.Date{Year: 2025, Month: time.March, Day: 14}, *raw.Date)
	assert.Equal(t, "Room 4", raw.Location)
	assert.Nil(t, raw.Start)

	start := day.Add(10 * time.Hour)
	end := start.Add(time.Hour)
	timed := CalendarEvent{Title: "Session", StartAt: &start, EndAt: &end}
	raw = timed.Raw()
	assert.False(t, raw.AllDay)
	assert.Equal(t, &start, raw.Start)
	assert.Nil(t, raw.Date)
}

func TestExportJobParamsScan(t *testing.T) {
	var p ExportJobParams
	require.NoError(t, p.Scan([]byte(`{"from":"2025-03-01","to":"2025-03-31","format":"xlsx"}`)))
	assert.Equal(t, ExportJobParams{From: "2025-03-01", To: "2025-03-31", Format: "xlsx"}, p)

	require.NoError(t, p.Scan(nil))
	assert.Equal(t, ExportJobParams{}, p)
	assert.Error(t, p.Scan(42))

	v, err := ExportJobParams{From: "a", To: "b", Format: "csv"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"a","to":"b","format":"csv"}`, string(v.([]byte)))
}

func TestUserRoleValid(t *testing.T) {
	assert.True(t, RoleTrainer.Valid())
	assert.False(t, UserRole("TEACHER").Valid())
}
