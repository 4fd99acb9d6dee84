package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	cfg := common.StoreConfig{
		DSN:         "file:" + filepath.Join(t.TempDir(), "test.db"),
		DialTimeout: 3 * time.Second,
	}
	db, err := Open(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.DB.Close() })
	return db
}

func TestDriverSelection(t *testing.T) {
	tests := []struct {
		dsn     string
		driver  string
		dialect Dialect
	}{
		{"file:intake.db", "sqlite", DialectSQLite},
		{"postgres://u:p@localhost/intake", "pgx", DialectPostgres},
		{"postgresql://u:p@localhost/intake", "pgx", DialectPostgres},
	}
	for _, tt := range tests {
		driver, dialect := driverFor(tt.dsn)
		if driver != tt.driver || dialect != tt.dialect {
			t.Errorf("driverFor(%q) = (%s, %s), want (%s, %s)", tt.dsn, driver, dialect, tt.driver, tt.dialect)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: DialectPostgres}
	got := pg.rebind(`SELECT * FROM t WHERE a = ? AND b = ?`)
	want := `SELECT * FROM t WHERE a = $1 AND b = $2`
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	lite := &DB{Dialect: DialectSQLite}
	q := `SELECT * FROM t WHERE a = ?`
	if lite.rebind(q) != q {
		t.Error("sqlite queries must pass through unchanged")
	}
}

func TestDocumentUpsertByHash(t *testing.T) {
	db := testDB(t)
	repo := NewDocumentRepository(db, discardLogger())
	ctx := context.Background()

	hash := []byte{0x01, 0x02, 0x03}
	now := time.Now().UTC()

	doc, dedup, err := repo.UpsertByHash(ctx, "/scans/a.pdf", "a.pdf", "pdf", 1024, hash, now)
	if err != nil {
		t.Fatal(err)
	}
	if dedup {
		t.Error("first insert flagged as duplicate")
	}

	again, dedup, err := repo.UpsertByHash(ctx, "/scans/copy-of-a.pdf", "copy-of-a.pdf", "pdf", 1024, hash, now)
	if err != nil {
		t.Fatal(err)
	}
	if !dedup {
		t.Error("same hash not deduplicated")
	}
	if again.ID != doc.ID {
		t.Errorf("dedup returned a different document: %s vs %s", again.ID, doc.ID)
	}

	got, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.SourcePath != "/scans/a.pdf" || got.FileExt != "pdf" || got.FileSize != 1024 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing document: err = %v, want ErrNotFound", err)
	}
}

func TestJobSaveAndList(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepository(db, discardLogger())
	jobs := NewJobRepository(db, discardLogger())
	ctx := context.Background()

	doc, _, err := docs.UpsertByHash(ctx, "/scans/a.pdf", "a.pdf", "pdf", 10, []byte{0xAA}, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}

	finished := time.Now().UTC()
	msg := "bad page"
	job := entity.ProcessJob{
		ID:           uuid.New(),
		DocumentID:   doc.ID,
		Status:       string(constants.JobStatusParsed),
		StartedAt:    finished.Add(-time.Minute),
		FinishedAt:   &finished,
		ErrorMessage: &msg,
		FormsTotal:   3,
		FormsValid:   2,
		PagesSkipped: 1,
		NeedsReview:  true,
	}
	if err := jobs.Save(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, err := jobs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != job.Status || got.FormsTotal != 3 || got.FormsValid != 2 || got.PagesSkipped != 1 || !got.NeedsReview {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("finished_at = %v, want %v", got.FinishedAt, finished)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != msg {
		t.Errorf("error message = %v", got.ErrorMessage)
	}

	list, err := jobs.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("got %d jobs, want 1", len(list))
	}
}

func TestRecordSaveAndList(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepository(db, discardLogger())
	records := NewRecordRepository(db, discardLogger())
	ctx := context.Background()

	doc, _, err := docs.UpsertByHash(ctx, "/scans/a.pdf", "a.pdf", "pdf", 10, []byte{0xBB}, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	value := "Acme Bakery"
	res := entity.FormResult{
		Record: entity.ConsultationRecord{
			ID:           uuid.New(),
			DocumentID:   doc.ID,
			FormIndex:    0,
			Pages:        []int{0, 1},
			BusinessName: "Acme Bakery",
			SessionDate:  &date,
			Status:       string(constants.RecordValidWithWarnings),
			CreatedAt:    time.Now().UTC(),
		},
		Validation: entity.ValidationResult{
			Status: constants.RecordValidWithWarnings,
			Warnings: []entity.Warning{{
				Field:    entity.FieldPhone,
				Code:     entity.WarnLowConfidence,
				Message:  "matched only a low-confidence rule",
				Severity: entity.SeverityWarning,
			}},
		},
		Extractions: []entity.FieldExtraction{{
			Field:      entity.FieldBusinessName,
			Value:      &value,
			Page:       0,
			Line:       1,
			Rule:       "business_name_label",
			Confidence: constants.ConfidenceHigh,
		}},
	}
	if err := records.Save(ctx, res); err != nil {
		t.Fatal(err)
	}

	byDoc, err := records.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(byDoc) != 1 {
		t.Fatalf("got %d records", len(byDoc))
	}
	got := byDoc[0]
	if got.Record.BusinessName != "Acme Bakery" || got.Validation.Status != constants.RecordValidWithWarnings {
		t.Errorf("roundtrip mismatch: %+v", got.Record)
	}
	if len(got.Validation.Warnings) != 1 || got.Validation.Warnings[0].Code != entity.WarnLowConfidence {
		t.Errorf("warnings lost: %v", got.Validation.Warnings)
	}
	if len(got.Extractions) != 1 || got.Extractions[0].Rule != "business_name_label" {
		t.Errorf("extractions lost: %v", got.Extractions)
	}

	byStatus, err := records.ListByStatus(ctx, string(constants.RecordValidWithWarnings))
	if err != nil {
		t.Fatal(err)
	}
	if len(byStatus) != 1 {
		t.Errorf("ListByStatus returned %d records", len(byStatus))
	}
	none, err := records.ListByStatus(ctx, string(constants.RecordInvalid))
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("unexpected invalid records: %d", len(none))
	}
}

func TestRecordSaveEnforcesSchema(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepository(db, discardLogger())
	records := NewRecordRepository(db, discardLogger())
	ctx := context.Background()

	doc, _, err := docs.UpsertByHash(ctx, "/scans/a.pdf", "a.pdf", "pdf", 10, []byte{0xCC}, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}

	base := func(status constants.RecordStatus, zip string) entity.FormResult {
		return entity.FormResult{
			Record: entity.ConsultationRecord{
				ID:         uuid.New(),
				DocumentID: doc.ID,
				Zip:        zip,
				Status:     string(status),
				CreatedAt:  time.Now().UTC(),
			},
			Validation: entity.ValidationResult{Status: status},
		}
	}

	if err := records.Save(ctx, base("", "")); err == nil {
		t.Error("record with no status saved")
	}
	if err := records.Save(ctx, base(constants.RecordValid, "606")); err == nil {
		t.Error("VALID record with malformed zip saved")
	}
	if err := records.Save(ctx, base(constants.RecordValidWithWarnings, "606")); err != nil {
		t.Errorf("warned record with raw scanned zip rejected: %v", err)
	}
}
