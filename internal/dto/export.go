package dto

import (
	"time"

	"github.com/noah-isme/lms-availability-api/internal/models"
)

// ExportRequest captures export range and format from the query string or JSON body.
type ExportRequest struct {
	From   string `json:"from" form:"from" validate:"required,datetime=2006-01-02"`
	To     string `json:"to" form:"to" validate:"required,datetime=2006-01-02"`
	Format string `json:"format" form:"format" validate:"omitempty,oneof=csv pdf xlsx CSV PDF XLSX"`
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse exposes export job progress.
type ExportStatusResponse struct {
	ID         string              `json:"id"`
	CalendarID string              `json:"calendarId"`
	Status     models.ExportStatus `json:"status"`
	Format     string              `json:"format"`
	From       string              `json:"from"`
	To         string              `json:"to"`
	ResultURL  *string             `json:"resultUrl,omitempty"`
	ExpiresAt  *time.Time          `json:"expiresAt,omitempty"`
	Error      *string             `json:"error,omitempty"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
}
