package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

// DocumentRepository stores ingested source files keyed by content hash.
type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByHash(ctx context.Context, hash []byte) (*entity.Document, error)
	// UpsertByHash returns the existing row when the hash is already known;
	// the bool reports deduplication.
	UpsertByHash(ctx context.Context, sourcePath, filename, ext string, size int64, hash []byte, uploadedAt time.Time) (*entity.Document, bool, error)
}

type documentRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	return &documentRepo{db: db, logger: logger}
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, source_path, filename, file_ext, content_hash, file_size, page_count, uploaded_at
		 FROM documents WHERE id = ?`), id.String())
	return scanDocument(row)
}

func (r *documentRepo) GetByHash(ctx context.Context, hash []byte) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, source_path, filename, file_ext, content_hash, file_size, page_count, uploaded_at
		 FROM documents WHERE content_hash = ?`), hex.EncodeToString(hash))
	return scanDocument(row)
}

func (r *documentRepo) UpsertByHash(ctx context.Context, sourcePath, filename, ext string, size int64, hash []byte, uploadedAt time.Time) (*entity.Document, bool, error) {
	existing, err := r.GetByHash(ctx, hash)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	doc := &entity.Document{
		ID:          uuid.New(),
		SourcePath:  sourcePath,
		Filename:    filename,
		FileExt:     ext,
		ContentHash: hash,
		FileSize:    size,
		UploadedAt:  uploadedAt.UTC(),
	}
	_, err = r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO documents (id, source_path, filename, file_ext, content_hash, file_size, page_count, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		doc.ID.String(), doc.SourcePath, doc.Filename, doc.FileExt,
		hex.EncodeToString(hash), doc.FileSize, doc.PageCount,
		doc.UploadedAt.Format(time.RFC3339Nano))
	if err != nil {
		r.logger.Error("failed to insert document", "source_path", sourcePath, "error", err)
		return nil, false, common.NewAppError("DB_INSERT", "failed to insert document", err)
	}
	return doc, false, nil
}

func scanDocument(row *sql.Row) (*entity.Document, error) {
	var (
		doc        entity.Document
		idStr      string
		hashHex    string
		uploadedAt string
	)
	err := row.Scan(&idStr, &doc.SourcePath, &doc.Filename, &doc.FileExt, &hashHex, &doc.FileSize, &doc.PageCount, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.NewAppError("DB_SCAN", "failed to scan document row", err)
	}
	if doc.ID, err = uuid.Parse(idStr); err != nil {
		return nil, common.NewAppError("DB_SCAN", "document id is not a uuid", err)
	}
	if doc.ContentHash, err = hex.DecodeString(hashHex); err != nil {
		return nil, common.NewAppError("DB_SCAN", "content hash is not hex", err)
	}
	if doc.UploadedAt, err = time.Parse(time.RFC3339Nano, uploadedAt); err != nil {
		return nil, common.NewAppError("DB_SCAN", "uploaded_at is not a timestamp", err)
	}
	return &doc, nil
}
