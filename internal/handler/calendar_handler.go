package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-availability-api/internal/dto"
	"github.com/noah-isme/lms-availability-api/internal/models"
	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
	"github.com/noah-isme/lms-availability-api/pkg/response"
)

type calendarService interface {
	List(ctx context.Context, calendarID string, query dto.CalendarEventQuery) ([]models.CalendarEvent, *models.Pagination, error)
	Get(ctx context.Context, calendarID, id string) (*models.CalendarEvent, error)
	Create(ctx context.Context, calendarID string, req dto.CalendarEventRequest, actor *models.JWTClaims) (*models.CalendarEvent, error)
	Update(ctx context.Context, calendarID, id string, req dto.CalendarEventRequest, actor *models.JWTClaims) (*models.CalendarEvent, error)
	Delete(ctx context.Context, calendarID, id string, actor *models.JWTClaims) error
}

// CalendarHandler exposes calendar event endpoints.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs a calendar handler.
func NewCalendarHandler(svc calendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// List godoc
// @Summary List calendar events
// @Tags Calendar
// @Produce json
// @Param calendarId path string true "Calendar ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /calendars/{calendarId}/events [get]
func (h *CalendarHandler) List(c *gin.Context) {
	page, ok := intQuery(c, "page", 1)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "page must be a number"))
		return
	}
	size, ok := intQuery(c, "pageSize", 50)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "pageSize must be a number"))
		return
	}
	query := dto.CalendarEventQuery{
		From:     pickQuery(c, "from", "startDate"),
		To:       pickQuery(c, "to", "endDate"),
		Page:     page,
		PageSize: size,
	}
	events, pagination, err := h.service.List(c.Request.Context(), c.Param("calendarId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get calendar event
// @Tags Calendar
// @Produce json
// @Param calendarId path string true "Calendar ID"
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /calendars/{calendarId}/events/{id} [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("calendarId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param calendarId path string true "Calendar ID"
// @Param payload body dto.CalendarEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /calendars/{calendarId}/events [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	var req dto.CalendarEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.service.Create(c.Request.Context(), c.Param("calendarId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param calendarId path string true "Calendar ID"
// @Param id path string true "Event ID"
// @Param payload body dto.CalendarEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /calendars/{calendarId}/events/{id} [put]
func (h *CalendarHandler) Update(c *gin.Context) {
	var req dto.CalendarEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.service.Update(c.Request.Context(), c.Param("calendarId"), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete calendar event
// @Tags Calendar
// @Param calendarId path string true "Calendar ID"
// @Param id path string true "Event ID"
// @Success 204
// @Router /calendars/{calendarId}/events/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("calendarId"), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
