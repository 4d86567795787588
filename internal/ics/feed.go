package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-availability-api/internal/availability"
)

const maxFeedBytes = 10 << 20

// FeedSource serves events from ICS subscriptions keyed by calendar ID.
type FeedSource struct {
	feeds  map[string]string
	client *http.Client
	logger *zap.Logger
}

// NewFeedSource constructs a feed source. A zero timeout falls back to 15 seconds.
func NewFeedSource(feeds map[string]string, timeout time.Duration, logger *zap.Logger) *FeedSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedSource{
		feeds:  feeds,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// ListEvents fetches the calendar's feed and expands it over [start, end). Calendars without a
// configured feed return no events.
func (s *FeedSource) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]availability.RawEvent, error) {
	feedURL, ok := s.feeds[calendarID]
	if !ok || feedURL == "" {
		return nil, nil
	}
	body, err := s.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	parsed, err := Parse(body, s.logger)
	if err != nil {
		return nil, err
	}
	events, err := Expand(parsed, ExpandConfig{RangeStart: start, RangeEnd: end, Logger: s.logger})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("ics feed expanded",
		zap.String("calendar_id", calendarID),
		zap.String("url", redactURL(feedURL)),
		zap.Int("vevents", len(parsed)),
		zap.Int("events", len(events)),
	)
	return events, nil
}

func (s *FeedSource) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build ics request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ics %s: %w", redactURL(feedURL), err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch ics %s: unexpected status %d", redactURL(feedURL), resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read ics %s: %w", redactURL(feedURL), err)
	}
	return body, nil
}

// redactURL drops query strings, which commonly carry private feed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
