package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-availability-api/internal/models"
)

var exportJobCols = []string{"id", "calendar_id", "params", "status", "file_path", "result_url", "expires_at", "error_message", "created_by", "created_at", "finished_at"}

func TestExportJobRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO export_jobs")).
		WithArgs(sqlmock.AnyArg(), "cal-1", sqlmock.AnyArg(), "QUEUED", nil, nil, nil, nil, "user-1", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{
		CalendarID: "cal-1",
		Params:     models.ExportJobParams{From: "2025-03-01", To: "2025-03-31", Format: "xlsx"},
		CreatedBy:  "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	rows := sqlmock.NewRows(exportJobCols).
		AddRow(job.ID, "cal-1", `{"from":"2025-03-01","to":"2025-03-31","format":"xlsx"}`, "QUEUED", nil, nil, nil, nil, "user-1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM export_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", fetched.Params.Format)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	now := time.Now()
	status := models.ExportStatusFinished
	path := "2025/03/job-1.xlsx"
	url := "/api/v1/export/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $1, file_path = $2, result_url = $3, expires_at = $4, finished_at = $5 WHERE id = $6")).
		WithArgs(status, path, url, now, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateExportJobParams{
		Status:     &status,
		FilePath:   &path,
		ResultURL:  &url,
		ExpiresAt:  &now,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateExportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryListQueuedAndExpired(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM export_jobs WHERE status = 'QUEUED' ORDER BY created_at ASC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(exportJobCols).
			AddRow("job-1", "cal-1", `{"from":"2025-03-01","to":"2025-03-02","format":"csv"}`, "QUEUED", nil, nil, nil, nil, "user-1", time.Now(), nil))
	queued, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, queued, 1)

	cutoff := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'FINISHED' AND file_path IS NOT NULL AND expires_at < $1 ORDER BY expires_at ASC LIMIT $2")).
		WithArgs(cutoff, 50).
		WillReturnRows(sqlmock.NewRows(exportJobCols).
			AddRow("job-2", "cal-1", `{}`, "FINISHED", "a.csv", "/x", cutoff.Add(-time.Hour), nil, "user-1", cutoff.Add(-48*time.Hour), cutoff.Add(-25*time.Hour)))
	expired, err := repo.ListExpired(context.Background(), cutoff, 0)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.NotNil(t, expired[0].FilePath)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET file_path = NULL, result_url = NULL WHERE id = $1")).
		WithArgs("job-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ClearResult(context.Background(), "job-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}
