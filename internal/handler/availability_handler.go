package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-availability-api/internal/dto"
	"github.com/noah-isme/lms-availability-api/internal/middleware"
	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
	"github.com/noah-isme/lms-availability-api/pkg/response"
)

type availabilityService interface {
	Month(ctx context.Context, calendarID string, year, month int) (*dto.MonthGridResponse, bool, error)
	Day(ctx context.Context, calendarID, date string) (*dto.DaySlotsResponse, error)
}

type exportRenderer interface {
	Render(ctx context.Context, calendarID string, req dto.ExportRequest) (*dto.ExportFile, error)
}

// AvailabilityHandler serves month grids, day slots and synchronous exports.
type AvailabilityHandler struct {
	service  availabilityService
	exporter exportRenderer
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService, exporter exportRenderer) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, exporter: exporter}
}

// Month godoc
// @Summary Month availability grid
// @Description Classifies each work window of every day in the month.
// @Tags Availability
// @Produce json
// @Param calendarId path string true "Calendar ID"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /calendars/{calendarId}/availability/month [get]
func (h *AvailabilityHandler) Month(c *gin.Context) {
	year, okYear := intQuery(c, "year", 0)
	month, okMonth := intQuery(c, "month", 0)
	if !okYear || !okMonth || year == 0 || month == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year and month are required numbers"))
		return
	}
	grid, cacheHit, err := h.service.Month(c.Request.Context(), c.Param("calendarId"), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, grid, nil, middleware.ExtractMeta(c))
}

// Day godoc
// @Summary Free slots of a day
// @Tags Availability
// @Produce json
// @Param calendarId path string true "Calendar ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /calendars/{calendarId}/availability/day [get]
func (h *AvailabilityHandler) Day(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	slots, err := h.service.Day(c.Request.Context(), c.Param("calendarId"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export availability range
// @Description Streams one row per date with a status per work window.
// @Tags Availability
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param calendarId path string true "Calendar ID"
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} binary
// @Router /calendars/{calendarId}/availability/export [get]
func (h *AvailabilityHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export not configured"))
		return
	}
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	file, err := h.exporter.Render(c.Request.Context(), c.Param("calendarId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, int64(len(file.Body)), file.ContentType, bytes.NewReader(file.Body), nil)
}
