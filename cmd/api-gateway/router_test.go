package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-availability-api/internal/availability"
	"github.com/noah-isme/lms-availability-api/internal/handler"
	"github.com/noah-isme/lms-availability-api/internal/models"
	"github.com/noah-isme/lms-availability-api/internal/service"
	"github.com/noah-isme/lms-availability-api/pkg/config"
)

const routerSecret = "router-test-secret"

type emptySource struct{}

func (emptySource) ListEvents(context.Context, string, time.Time, time.Time) ([]availability.RawEvent, error) {
	return nil, nil
}

type memoryCalendarRepo struct {
	events map[string]*models.CalendarEvent
}

func (m *memoryCalendarRepo) List(context.Context, models.CalendarFilter) ([]models.CalendarEvent, int, error) {
	return nil, 0, nil
}

func (m *memoryCalendarRepo) GetByID(_ context.Context, _ string, id string) (*models.CalendarEvent, error) {
	return m.events[id], nil
}

func (m *memoryCalendarRepo) Create(_ context.Context, event *models.CalendarEvent) error {
	event.ID = "ev-1"
	m.events[event.ID] = event
	return nil
}

func (m *memoryCalendarRepo) Update(context.Context, *models.CalendarEvent) error { return nil }

func (m *memoryCalendarRepo) Delete(context.Context, string, string) error { return nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine, err := availability.NewEngine(availability.DefaultSchedule(time.UTC))
	require.NoError(t, err)

	metrics := service.NewMetricsService()
	auth := service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: routerSecret})
	calendarSvc := service.NewCalendarService(&memoryCalendarRepo{events: map[string]*models.CalendarEvent{}}, nil, nil, nil)
	availabilitySvc := service.NewAvailabilityService(engine, emptySource{}, nil, metrics, time.Minute, nil)
	exportSvc := service.NewExportService(engine, emptySource{}, nil, nil, metrics, service.ExportConfig{}, nil)

	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1"}
	return newRouter(cfg, zap.NewNop(), routerDeps{
		auth:         auth,
		metrics:      metrics,
		health:       handler.NewMetricsHandler(metrics, nil),
		calendar:     handler.NewCalendarHandler(calendarSvc),
		availability: handler.NewAvailabilityHandler(availabilitySvc, exportSvc),
	})
}

func tokenFor(t *testing.T, role models.UserRole) string {
	t.Helper()
	claims := models.JWTClaims{
		UserID: "user-" + string(role),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routerSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func do(r http.Handler, method, path, auth string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	rec := do(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouterAvailabilityRequiresToken(t *testing.T) {
	r := newTestRouter(t)
	path := "/api/v1/calendars/cal-1/availability/month?year=2025&month=3"

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, path, "", nil).Code)

	rec := do(r, http.MethodGet, path, tokenFor(t, models.RoleStudent), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), `"days"`)
}

func TestRouterEventWritesRequireWriterRole(t *testing.T) {
	r := newTestRouter(t)
	body := []byte(`{"title":"Holiday","allDay":true,"date":"2025-03-14"}`)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/v1/calendars/cal-1/events", tokenFor(t, models.RoleStudent), body).Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/v1/calendars/cal-1/events", tokenFor(t, models.RoleTrainer), body).Code)
}

func TestRouterSynchronousExport(t *testing.T) {
	r := newTestRouter(t)
	rec := do(r, http.MethodGet, "/api/v1/calendars/cal-1/availability/export?from=2025-03-10&to=2025-03-16&format=csv", tokenFor(t, models.RoleStudent), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2025-03-16,Sunday,WEEKEND,WEEKEND")
}

func TestRouterBackgroundExportsDisabled(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/export/some-token", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/calendars/cal-1/availability/exports", tokenFor(t, models.RoleAdmin), nil).Code)
}
