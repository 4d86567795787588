package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-availability-api/internal/availability"
	"github.com/noah-isme/lms-availability-api/internal/dto"
	"github.com/noah-isme/lms-availability-api/internal/models"
	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
	"github.com/noah-isme/lms-availability-api/pkg/export"
	"github.com/noah-isme/lms-availability-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	MaxDays   int
	ResultTTL time.Duration
}

// ExportResult captures a stored export and its download link.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	ExpiresAt    time.Time
}

// exportPlan is a validated export request.
type exportPlan struct {
	calendarID string
	from       availability.Date
	to         availability.Date
	format     export.Format
}

// ExportService renders availability ranges to CSV, PDF or XLSX and, when storage is configured,
// persists them behind signed download tokens.
type ExportService struct {
	engine    *availability.Engine
	source    EventSource
	storage   fileStorage
	signer    *storage.SignedURLSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService. storage and signer may be nil when background
// exports are disabled.
func NewExportService(engine *availability.Engine, source EventSource, files fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 366
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		engine:    engine,
		source:    source,
		storage:   files,
		signer:    signer,
		metrics:   metrics,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
	}
}

// Validate checks an export request without touching any event source and returns the
// normalised parameters to persist.
func (s *ExportService) Validate(calendarID string, req dto.ExportRequest) (models.ExportJobParams, error) {
	plan, err := s.plan(calendarID, req)
	if err != nil {
		return models.ExportJobParams{}, err
	}
	return models.ExportJobParams{From: plan.from.String(), To: plan.to.String(), Format: string(plan.format)}, nil
}

// Render produces the export document for the request.
func (s *ExportService) Render(ctx context.Context, calendarID string, req dto.ExportRequest) (*dto.ExportFile, error) {
	plan, err := s.plan(calendarID, req)
	if err != nil {
		return nil, err
	}
	body, err := s.render(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &dto.ExportFile{
		Filename:    exportFilename(plan),
		ContentType: plan.format.ContentType(),
		Body:        body,
	}, nil
}

// Generate renders a persisted job and stores the file for download.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if s.storage == nil || s.signer == nil {
		return nil, fmt.Errorf("export storage not configured")
	}
	plan, err := s.plan(job.CalendarID, dto.ExportRequest{From: job.Params.From, To: job.Params.To, Format: job.Params.Format})
	if err != nil {
		return nil, err
	}
	body, err := s.render(ctx, plan)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(job.ID+"_"+exportFilename(plan), body)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	if s.signer == nil {
		return "", "", time.Time{}, storage.ErrInvalidToken
	}
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	if s.storage == nil {
		return nil, os.ErrNotExist
	}
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) plan(calendarID string, req dto.ExportRequest) (exportPlan, error) {
	if strings.TrimSpace(calendarID) == "" {
		return exportPlan{}, appErrors.Clone(appErrors.ErrValidation, "calendarId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return exportPlan{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "from and to must be YYYY-MM-DD; format must be csv, pdf or xlsx")
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return exportPlan{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	from, err := availability.ParseDate(req.From)
	if err != nil {
		return exportPlan{}, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
	}
	to, err := availability.ParseDate(req.To)
	if err != nil {
		return exportPlan{}, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return exportPlan{}, appErrors.Wrap(&availability.RangeError{From: from, To: to, Reason: "end date is before start date"},
			appErrors.ErrInvalidRange.Code, appErrors.ErrInvalidRange.Status, "to must be on or after from")
	}
	if days := availability.DaysBetween(from, to); days > s.cfg.MaxDays {
		return exportPlan{}, appErrors.Clone(appErrors.ErrInvalidRange, fmt.Sprintf("range spans %d days, at most %d allowed", days, s.cfg.MaxDays))
	}
	return exportPlan{calendarID: calendarID, from: from, to: to, format: format}, nil
}

func (s *ExportService) render(ctx context.Context, plan exportPlan) ([]byte, error) {
	loc := s.engine.Location()
	raw, err := s.source.ListEvents(ctx, plan.calendarID, plan.from.Midnight(loc), plan.to.AddDays(1).Midnight(loc))
	if err != nil {
		return nil, err
	}
	rows, err := s.engine.ExportRange(plan.from, plan.to, availability.Normalize(raw, loc))
	if err != nil {
		var rangeErr *availability.RangeError
		if errors.As(err, &rangeErr) {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidRange.Code, appErrors.ErrInvalidRange.Status, rangeErr.Reason)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute export")
	}
	s.metrics.IncComputation("export")

	dataset := export.Dataset{
		Title:   fmt.Sprintf("Availability %s: %s to %s", plan.calendarID, plan.from, plan.to),
		Headers: s.engine.ExportHeaders(),
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, append([]string{row.Date.String(), row.Weekday}, row.Statuses...))
	}

	renderer, err := export.NewRenderer(plan.format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	started := time.Now()
	body, err := renderer.Render(dataset)
	s.metrics.ObserveExportRender(string(plan.format), time.Since(started))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("export rendered",
		zap.String("calendar_id", plan.calendarID),
		zap.String("format", string(plan.format)),
		zap.Int("rows", len(rows)),
	)
	return body, nil
}

func exportFilename(plan exportPlan) string {
	return fmt.Sprintf("availability_%s_%s_%s.%s", sanitizeFilename(plan.calendarID), plan.from, plan.to, plan.format.Extension())
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
