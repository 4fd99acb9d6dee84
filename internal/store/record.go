package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
	"github.com/scanwell/consult-intake/internal/validate"
)

// RecordRepository stores emitted form results. The full record, warnings and
// per-field extractions are kept as JSON documents for the audit trail; the
// indexed columns cover the review queries.
type RecordRepository interface {
	Save(ctx context.Context, result entity.FormResult) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.FormResult, error)
	ListByStatus(ctx context.Context, status string) ([]entity.FormResult, error)
}

type recordRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewRecordRepository(db *DB, logger *slog.Logger) RecordRepository {
	return &recordRepo{db: db, logger: logger}
}

func (r *recordRepo) Save(ctx context.Context, result entity.FormResult) error {
	recJSON, err := json.Marshal(result.Record)
	if err != nil {
		return common.NewAppError("DB_MARSHAL", "failed to marshal record", err)
	}
	if err := validate.ValidateJSONAgainstSchema(validate.BuildRecordJSONSchema(), recJSON); err != nil {
		return common.NewAppError("DB_SCHEMA", "record does not match the persistence schema", err)
	}
	warnJSON, err := json.Marshal(result.Validation.Warnings)
	if err != nil {
		return common.NewAppError("DB_MARSHAL", "failed to marshal warnings", err)
	}
	extJSON, err := json.Marshal(result.Extractions)
	if err != nil {
		return common.NewAppError("DB_MARSHAL", "failed to marshal extractions", err)
	}

	_, err = r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO records (id, document_id, form_index, status, record_json, warnings_json, extractions_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		result.Record.ID.String(), result.Record.DocumentID.String(), result.Record.FormIndex,
		string(result.Validation.Status), string(recJSON), string(warnJSON), string(extJSON),
		result.Record.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		r.logger.Error("failed to save record", "record_id", result.Record.ID, "error", err)
		return common.NewAppError("DB_INSERT", "failed to save record", err)
	}
	return nil
}

func (r *recordRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]entity.FormResult, error) {
	return r.list(ctx, recordSelect+` WHERE document_id = ? ORDER BY form_index`, documentID.String())
}

func (r *recordRepo) ListByStatus(ctx context.Context, status string) ([]entity.FormResult, error) {
	return r.list(ctx, recordSelect+` WHERE status = ? ORDER BY created_at`, status)
}

const recordSelect = `SELECT status, record_json, warnings_json, extractions_json FROM records`

func (r *recordRepo) list(ctx context.Context, query string, args ...any) ([]entity.FormResult, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "failed to query records", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]entity.FormResult, error) {
	var results []entity.FormResult
	for rows.Next() {
		var status, recJSON, warnJSON, extJSON string
		if err := rows.Scan(&status, &recJSON, &warnJSON, &extJSON); err != nil {
			return nil, common.NewAppError("DB_SCAN", "failed to scan record row", err)
		}
		var res entity.FormResult
		if err := json.Unmarshal([]byte(recJSON), &res.Record); err != nil {
			return nil, common.NewAppError("DB_SCAN", "record json is corrupt", err)
		}
		if err := json.Unmarshal([]byte(warnJSON), &res.Validation.Warnings); err != nil {
			return nil, common.NewAppError("DB_SCAN", "warnings json is corrupt", err)
		}
		if err := json.Unmarshal([]byte(extJSON), &res.Extractions); err != nil {
			return nil, common.NewAppError("DB_SCAN", "extractions json is corrupt", err)
		}
		res.Validation.Status = constants.RecordStatus(status)
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DB_SCAN", "record row iteration failed", err)
	}
	return results, nil
}
