package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-availability-api/internal/availability"
)

func TestLoadScheduleDefaults(t *testing.T) {
	schedule, err := LoadSchedule(AvailabilityConfig{Timezone: "UTC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"morning", "afternoon"}, schedule.WindowNames())
	assert.Equal(t, time.UTC, schedule.Location)
	assert.Equal(t, availability.ClockTime{Hour: 9}, schedule.FullWindow.Start)
	assert.Equal(t, availability.ClockTime{Hour: 18}, schedule.FullWindow.End)
}

func TestLoadScheduleFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	content := `timezone: UTC
full_window: {name: day, start: "08:00", end: "17:00"}
windows:
  - {name: early, start: "08:00", end: "12:00"}
  - {name: late, start: "13:00", end: "17:00"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	schedule, err := LoadSchedule(AvailabilityConfig{Timezone: "Local", ScheduleFile: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, schedule.WindowNames())
	assert.Equal(t, availability.ClockTime{Hour: 8}, schedule.FullWindow.Start)
	assert.Equal(t, "UTC", schedule.Location.String())
}

func TestLoadScheduleRejectsInvalidWindows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	content := `windows:
  - {name: broken, start: "12:00", end: "09:00"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadSchedule(AvailabilityConfig{ScheduleFile: path})
	require.Error(t, err)
}

func TestLoadScheduleRejectsUnknownTimezone(t *testing.T) {
	_, err := LoadSchedule(AvailabilityConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)
}

func TestParseFeeds(t *testing.T) {
	feeds := parseFeeds("cal-1=https://example.com/a.ics?token=x=y, bad , =https://nope, cal-2 = https://example.com/b.ics")
	assert.Equal(t, map[string]string{
		"cal-1": "https://example.com/a.ics?token=x=y",
		"cal-2": "https://example.com/b.ics",
	}, feeds)
}
