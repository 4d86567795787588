package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-availability-api/internal/availability"
	"github.com/noah-isme/lms-availability-api/internal/dto"
	"github.com/noah-isme/lms-availability-api/internal/models"
	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
	"github.com/noah-isme/lms-availability-api/pkg/storage"
)

func exportFixtureEvents() []availability.RawEvent {
	holiday := availability.Date{Year: 2025, Month: time.March, Day: 11}
	return []availability.RawEvent{
		{Start: march(10, 15, 0), End: march(10, 16, 0)},
		{AllDay: true, Date: &holiday},
	}
}

func newExportServiceForTest(t *testing.T, source EventSource) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", MaxDays: 31, ResultTTL: time.Hour}
	return NewExportService(newTestEngine(t), source, store, signer, NewMetricsService(), cfg, zap.NewNop()), store
}

func TestExportServiceRenderCSV(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &stubEventSource{events: exportFixtureEvents()})

	file, err := svc.Render(context.Background(), "cal-1", dto.ExportRequest{From: "2025-03-08", To: "2025-03-11"})
	require.NoError(t, err)
	assert.Equal(t, "availability_cal-1_2025-03-08_2025-03-11.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Date,Weekday,morning,afternoon", strings.TrimSpace(lines[0]))
	assert.Equal(t, "2025-03-08,Saturday,WEEKEND,WEEKEND", strings.TrimSpace(lines[1]))
	assert.Equal(t, "2025-03-10,Monday,FREE,OCCUPIED", strings.TrimSpace(lines[3]))
	assert.Equal(t, "2025-03-11,Tuesday,OCCUPIED (all day),OCCUPIED (all day)", strings.TrimSpace(lines[4]))
}

func TestExportServiceRenderBinaryFormats(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &stubEventSource{events: exportFixtureEvents()})

	pdf, err := svc.Render(context.Background(), "cal-1", dto.ExportRequest{From: "2025-03-10", To: "2025-03-14", Format: "PDF"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf.Body), "%PDF"))
	assert.Equal(t, "application/pdf", pdf.ContentType)

	xlsx, err := svc.Render(context.Background(), "cal-1", dto.ExportRequest{From: "2025-03-10", To: "2025-03-14", Format: "xlsx"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(xlsx.Body), "PK"))
	assert.True(t, strings.HasSuffix(xlsx.Filename, ".xlsx"))
}

func TestExportServiceRangeValidation(t *testing.T) {
	source := &stubEventSource{}
	svc, _ := newExportServiceForTest(t, source)

	cases := map[string]struct {
		req  dto.ExportRequest
		code string
	}{
		"inverted":      {dto.ExportRequest{From: "2025-03-10", To: "2025-03-09"}, appErrors.ErrInvalidRange.Code},
		"too long":      {dto.ExportRequest{From: "2025-01-01", To: "2025-03-01"}, appErrors.ErrInvalidRange.Code},
		"missing from":  {dto.ExportRequest{To: "2025-03-09"}, appErrors.ErrValidation.Code},
		"bad format":    {dto.ExportRequest{From: "2025-03-01", To: "2025-03-02", Format: "docx"}, appErrors.ErrValidation.Code},
		"malformed day": {dto.ExportRequest{From: "2025-02-30", To: "2025-03-02"}, appErrors.ErrValidation.Code},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Render(context.Background(), "cal-1", tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
	assert.Zero(t, source.calls)
}

func TestExportServiceSingleDayRange(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &stubEventSource{})
	file, err := svc.Render(context.Background(), "cal-1", dto.ExportRequest{From: "2025-03-12", To: "2025-03-12"})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	assert.Len(t, lines, 2)
}

func TestExportServiceRenderFetchFailure(t *testing.T) {
	failing := NewMultiEventSource(nil, nil, NamedSource{Name: "ics", Source: &stubEventSource{err: errors.New("timeout")}})
	svc, _ := newExportServiceForTest(t, failing)

	file, err := svc.Render(context.Background(), "cal-1", dto.ExportRequest{From: "2025-03-10", To: "2025-03-11"})
	require.Error(t, err)
	assert.Nil(t, file)
	assert.Equal(t, http.StatusBadGateway, appErrors.FromError(err).Status)
}

func TestExportServiceGenerateStoresFile(t *testing.T) {
	svc, store := newExportServiceForTest(t, &stubEventSource{events: exportFixtureEvents()})
	job := &models.ExportJob{
		ID:         "job-1",
		CalendarID: "cal-1",
		Params:     models.ExportJobParams{From: "2025-03-10", To: "2025-03-11", Format: "csv"},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.True(t, strings.HasSuffix(result.URL, result.Token))

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)

	f, err := store.Open(relPath)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(body), "OCCUPIED (all day)")
}

func TestExportServiceGenerateWithoutStorage(t *testing.T) {
	svc := NewExportService(newTestEngine(t), &stubEventSource{}, nil, nil, nil, ExportConfig{}, nil)
	_, err := svc.Generate(context.Background(), &models.ExportJob{ID: "job-1", CalendarID: "cal-1"})
	require.Error(t, err)
}

func TestExportServiceValidateNormalisesParams(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &stubEventSource{})
	params, err := svc.Validate("cal-1", dto.ExportRequest{From: "2025-03-01", To: "2025-03-05", Format: "XLSX"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportJobParams{From: "2025-03-01", To: "2025-03-05", Format: "xlsx"}, params)
}
