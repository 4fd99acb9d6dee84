package store

import (
	"context"

	"github.com/scanwell/consult-intake/internal/common"
)

// Schema kept portable: TEXT uuids, TEXT timestamps in RFC 3339, BLOB/bytea
// only for the content hash. Applied idempotently on every Open.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id            TEXT PRIMARY KEY,
		source_path   TEXT NOT NULL,
		filename      TEXT NOT NULL,
		file_ext      TEXT NOT NULL,
		content_hash  TEXT NOT NULL UNIQUE,
		file_size     BIGINT NOT NULL,
		page_count    INTEGER NOT NULL DEFAULT 0,
		uploaded_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS process_jobs (
		id            TEXT PRIMARY KEY,
		document_id   TEXT NOT NULL REFERENCES documents(id),
		status        TEXT NOT NULL,
		started_at    TEXT NOT NULL,
		finished_at   TEXT,
		error_message TEXT,
		forms_total   INTEGER NOT NULL DEFAULT 0,
		forms_valid   INTEGER NOT NULL DEFAULT 0,
		pages_skipped INTEGER NOT NULL DEFAULT 0,
		needs_review  INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		id           TEXT PRIMARY KEY,
		document_id  TEXT NOT NULL REFERENCES documents(id),
		form_index   INTEGER NOT NULL,
		status       TEXT NOT NULL,
		record_json  TEXT NOT NULL,
		warnings_json TEXT NOT NULL,
		extractions_json TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_document ON process_jobs(document_id)`,
	`CREATE INDEX IF NOT EXISTS idx_records_document ON records(document_id)`,
	`CREATE INDEX IF NOT EXISTS idx_records_status ON records(status)`,
}

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return common.NewAppError("DB_MIGRATE", "failed to apply schema", err)
		}
	}
	return nil
}
