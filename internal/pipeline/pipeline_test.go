package pipeline

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
	"github.com/scanwell/consult-intake/internal/parse"
	"github.com/scanwell/consult-intake/internal/validate"
)

type stubRaster struct {
	pages int
	err   error
}

func (s *stubRaster) Rasterize(_ context.Context, docID uuid.UUID, _ string) ([]entity.RawPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	pages := make([]entity.RawPage, s.pages)
	for i := range pages {
		pages[i] = entity.RawPage{DocumentID: docID, Index: i, PNG: []byte{0x89}, DPI: 300}
	}
	return pages, nil
}

type passPre struct{}

func (passPre) Preprocess(page entity.RawPage) (entity.RawPage, error) { return page, nil }

// scriptedEngine returns fixed lines per page index and can fail chosen pages.
type scriptedEngine struct {
	lines    map[int][]string
	failPage int // -1 disables
	failErr  error
	calls    atomic.Int32
}

func (s *scriptedEngine) Name() string { return "scripted" }

func (s *scriptedEngine) Recognize(ctx context.Context, page entity.RawPage) (entity.PageText, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return entity.PageText{}, err
	}
	if page.Index == s.failPage {
		return entity.PageText{}, s.failErr
	}
	return entity.NewPageText(page.Index, s.lines[page.Index], nil), nil
}

func newTestOrchestrator(t *testing.T, raster Rasterizer, engine *scriptedEngine) *Orchestrator {
	t.Helper()
	orch, err := NewOrchestrator(
		raster, passPre{}, engine,
		parse.NewParser(nil, nil),
		validate.New(nil),
		nil,
		common.PipelineConfig{PageWorkers: 4, FormMarker: `(?i)client\s+consultation\s+form`},
		common.SubmissionContext{},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	return orch
}

func testDoc() entity.Document {
	return entity.Document{ID: uuid.New(), SourcePath: "/scans/batch.pdf", Filename: "batch.pdf", FileExt: "pdf"}
}

func TestProcessDocumentMultipleForms(t *testing.T) {
	engine := &scriptedEngine{
		failPage: -1,
		lines: map[int][]string{
			0: {"Client Consultation Form", "Business Name: Acme Bakery", "Name: Jane Doe", "Date: 2025-03-14"},
			1: {"Consultation Notes:", "Met with the client to review the storefront plan today."},
			2: {"Client Consultation Form", "Business Name: Blue Harbor Cafe", "Name: Ana Reyes", "Date: 2025-03-15"},
		},
	}
	orch := newTestOrchestrator(t, &stubRaster{pages: 3}, engine)

	doc := testDoc()
	job, forms, err := orch.ProcessDocument(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}

	if job.Status != string(constants.JobStatusParsed) {
		t.Errorf("job status = %s", job.Status)
	}
	if job.FormsTotal != 2 {
		t.Fatalf("forms total = %d, want 2", job.FormsTotal)
	}
	if len(forms) != 2 {
		t.Fatalf("got %d forms", len(forms))
	}

	// document order is preserved and page spans are right
	if forms[0].Record.BusinessName != "Acme Bakery" || forms[1].Record.BusinessName != "Blue Harbor Cafe" {
		t.Errorf("form order: %q, %q", forms[0].Record.BusinessName, forms[1].Record.BusinessName)
	}
	if !reflect.DeepEqual(forms[0].Record.Pages, []int{0, 1}) {
		t.Errorf("form 0 pages = %v", forms[0].Record.Pages)
	}
	if !reflect.DeepEqual(forms[1].Record.Pages, []int{2}) {
		t.Errorf("form 1 pages = %v", forms[1].Record.Pages)
	}

	for i, form := range forms {
		if form.Record.FormIndex != i {
			t.Errorf("form %d index = %d", i, form.Record.FormIndex)
		}
		if form.Record.DocumentID != doc.ID {
			t.Errorf("form %d document id = %s", i, form.Record.DocumentID)
		}
		if form.Record.ID == uuid.Nil {
			t.Errorf("form %d has no record id", i)
		}
		if form.Validation.Status != constants.RecordValid {
			t.Errorf("form %d status = %s (warnings: %v)", i, form.Validation.Status, form.Validation.Warnings)
		}
	}
	if job.FormsValid != 2 || job.NeedsReview {
		t.Errorf("job tallies: valid=%d needs_review=%v", job.FormsValid, job.NeedsReview)
	}
}

func TestProcessDocumentPageFailureContained(t *testing.T) {
	engine := &scriptedEngine{
		failPage: 1,
		failErr:  common.NewAppError("OCR_EXHAUSTED", "page 1 failed", common.ErrExtraction),
		lines: map[int][]string{
			0: {"Client Consultation Form", "Business Name: Acme Bakery", "Name: Jane Doe", "Date: 2025-03-14"},
			1: {"never returned"},
		},
	}
	orch := newTestOrchestrator(t, &stubRaster{pages: 2}, engine)

	job, forms, err := orch.ProcessDocument(context.Background(), testDoc())
	if err != nil {
		t.Fatal(err)
	}

	if job.PagesSkipped != 1 {
		t.Errorf("pages skipped = %d, want 1", job.PagesSkipped)
	}
	if len(forms) != 1 {
		t.Fatalf("got %d forms", len(forms))
	}
	form := forms[0]
	if form.Record.BusinessName != "Acme Bakery" {
		t.Errorf("surviving page fields lost: %q", form.Record.BusinessName)
	}
	if !form.Validation.HasWarning(entity.WarnPageSkipped, "") {
		t.Errorf("missing PAGE_SKIPPED warning: %v", form.Validation.Warnings)
	}
	if form.Validation.Status != constants.RecordValidWithWarnings {
		t.Errorf("status = %s", form.Validation.Status)
	}
}

func TestProcessDocumentRenderFailureFatal(t *testing.T) {
	renderErr := common.NewAppError("RENDER", "broken pdf", common.ErrInvalidDocument)
	orch := newTestOrchestrator(t, &stubRaster{err: renderErr}, &scriptedEngine{failPage: -1})

	job, forms, err := orch.ProcessDocument(context.Background(), testDoc())
	if err == nil {
		t.Fatal("expected error")
	}
	if forms != nil {
		t.Errorf("partial records emitted: %v", forms)
	}
	if job.Status != string(constants.JobStatusFailed) {
		t.Errorf("job status = %s", job.Status)
	}
	if job.ErrorMessage == nil {
		t.Error("job has no error message")
	}
}

func TestProcessDocumentCancellation(t *testing.T) {
	engine := &scriptedEngine{failPage: -1, lines: map[int][]string{}}
	orch := newTestOrchestrator(t, &stubRaster{pages: 4}, engine)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job, forms, err := orch.ProcessDocument(ctx, testDoc())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(forms) != 0 {
		t.Errorf("partial records emitted after cancellation: %d", len(forms))
	}
	if job.Status != string(constants.JobStatusFailed) {
		t.Errorf("job status = %s", job.Status)
	}
}

func TestGroupFormsImplicitFirstForm(t *testing.T) {
	orch := newTestOrchestrator(t, &stubRaster{}, &scriptedEngine{failPage: -1})
	texts := []entity.PageText{
		entity.NewPageText(0, []string{"a stray cover page"}, nil),
		entity.NewPageText(1, []string{"Client Consultation Form"}, nil),
		entity.NewPageText(2, []string{"continuation"}, nil),
	}
	forms := orch.groupForms(texts)
	if len(forms) != 2 {
		t.Fatalf("got %d forms, want 2", len(forms))
	}
	if forms[0][0].Index() != 0 || forms[1][0].Index() != 1 || forms[1][1].Index() != 2 {
		t.Errorf("grouping: %v", formIndexes(forms))
	}
}

func formIndexes(forms [][]entity.PageText) [][]int {
	out := make([][]int, len(forms))
	for i, f := range forms {
		for _, p := range f {
			out[i] = append(out[i], p.Index())
		}
	}
	return out
}
