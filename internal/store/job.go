package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

// JobRepository tracks pipeline runs. Jobs are written once at completion;
// the pipeline does not checkpoint intermediate stages.
type JobRepository interface {
	Save(ctx context.Context, job entity.ProcessJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ProcessJob, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.ProcessJob, error)
}

type jobRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewJobRepository(db *DB, logger *slog.Logger) JobRepository {
	return &jobRepo{db: db, logger: logger}
}

func (r *jobRepo) Save(ctx context.Context, job entity.ProcessJob) error {
	var finished, errMsg sql.NullString
	if job.FinishedAt != nil {
		finished = sql.NullString{String: job.FinishedAt.Format(time.RFC3339Nano), Valid: true}
	}
	if job.ErrorMessage != nil {
		errMsg = sql.NullString{String: *job.ErrorMessage, Valid: true}
	}
	needsReview := 0
	if job.NeedsReview {
		needsReview = 1
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO process_jobs (id, document_id, status, started_at, finished_at, error_message, forms_total, forms_valid, pages_skipped, needs_review)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		job.ID.String(), job.DocumentID.String(), job.Status,
		job.StartedAt.Format(time.RFC3339Nano), finished, errMsg,
		job.FormsTotal, job.FormsValid, job.PagesSkipped, needsReview)
	if err != nil {
		r.logger.Error("failed to save job", "job_id", job.ID, "error", err)
		return common.NewAppError("DB_INSERT", "failed to save process job", err)
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ProcessJob, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(jobSelect+` WHERE id = ?`), id.String())
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "failed to query job", err)
	}
	defer rows.Close()
	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, common.ErrNotFound
	}
	return &jobs[0], nil
}

func (r *jobRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.ProcessJob, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(jobSelect+` WHERE document_id = ? ORDER BY started_at`), documentID.String())
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "failed to query jobs", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

const jobSelect = `SELECT id, document_id, status, started_at, finished_at, error_message, forms_total, forms_valid, pages_skipped, needs_review FROM process_jobs`

func scanJobs(rows *sql.Rows) ([]entity.ProcessJob, error) {
	var jobs []entity.ProcessJob
	for rows.Next() {
		var (
			job              entity.ProcessJob
			idStr, docStr    string
			started          string
			finished, errMsg sql.NullString
			needsReview      int
		)
		if err := rows.Scan(&idStr, &docStr, &job.Status, &started, &finished, &errMsg,
			&job.FormsTotal, &job.FormsValid, &job.PagesSkipped, &needsReview); err != nil {
			return nil, common.NewAppError("DB_SCAN", "failed to scan job row", err)
		}
		var err error
		if job.ID, err = uuid.Parse(idStr); err != nil {
			return nil, common.NewAppError("DB_SCAN", "job id is not a uuid", err)
		}
		if job.DocumentID, err = uuid.Parse(docStr); err != nil {
			return nil, common.NewAppError("DB_SCAN", "document id is not a uuid", err)
		}
		if job.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, common.NewAppError("DB_SCAN", "started_at is not a timestamp", err)
		}
		if finished.Valid {
			t, err := time.Parse(time.RFC3339Nano, finished.String)
			if err != nil {
				return nil, common.NewAppError("DB_SCAN", "finished_at is not a timestamp", err)
			}
			job.FinishedAt = &t
		}
		if errMsg.Valid {
			s := errMsg.String
			job.ErrorMessage = &s
		}
		job.NeedsReview = needsReview != 0
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("DB_SCAN", "job row iteration failed", err)
	}
	return jobs, nil
}
