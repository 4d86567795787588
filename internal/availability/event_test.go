package availability

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDropsMalformedEvents(t *testing.T) {
	start := at(monday, 10, 0)
	end := at(monday, 11, 0)
	date := monday

	raw := []RawEvent{
		{Start: &start, End: &end, Title: "standup"},
		{Start: &start},
		{End: &end},
		{AllDay: true},
		{AllDay: true, Date: &date, Title: "holiday"},
		{Start: &end, End: &start},
		{AllDay: true, Date: &Date{}},
	}

	events := Normalize(raw, time.UTC)

	require.Len(t, events, 2)
	assert.Equal(t, KindTimed, events[0].Kind)
	assert.Equal(t, "standup", events[0].Title)
	assert.Equal(t, KindAllDay, events[1].Kind)
	assert.Equal(t, monday, events[1].Date)
}

func TestNormalizeConvertsToLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	start := time.Date(2025, time.March, 11, 2, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	events := Normalize([]RawEvent{{Start: &start, End: &end}}, loc)

	require.Len(t, events, 1)
	assert.True(t, events[0].OnDate(monday, loc))
	assert.Equal(t, 21, events[0].Start.Hour())
}

func TestIntervalOverlapIsStrict(t *testing.T) {
	a := Interval{Start: at(monday, 9, 0), End: at(monday, 10, 0)}
	b := Interval{Start: at(monday, 10, 0), End: at(monday, 11, 0)}
	c := Interval{Start: at(monday, 9, 30), End: at(monday, 10, 30)}

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(b))
}

func TestDateHelpers(t *testing.T) {
	d, err := ParseDate("2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.January, Day: 1}, d.AddDays(1))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
	assert.Equal(t, "2024-12-31", d.String())

	_, err = ParseDate("31/12/2024")
	require.Error(t, err)

	payload, err := json.Marshal(struct {
		Date Date `json:"date"`
	}{Date: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-12-31"}`, string(payload))
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 7, Minute: 5}, c)
	assert.Equal(t, "07:05", c.String())

	_, err = ParseClock("7pm")
	require.Error(t, err)
}
