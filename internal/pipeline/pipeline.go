// Package pipeline coordinates the per-document flow: rasterize, then
// preprocess and recognize every page concurrently, then group pages into
// logical forms and run parse + validate per form.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/debugstore"
	"github.com/scanwell/consult-intake/internal/entity"
	"github.com/scanwell/consult-intake/internal/ocr"
	"github.com/scanwell/consult-intake/internal/parse"
	"github.com/scanwell/consult-intake/internal/validate"
)

// Rasterizer renders a source file into per-page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, docID uuid.UUID, path string) ([]entity.RawPage, error)
}

// Preprocessor normalizes one page image before recognition.
type Preprocessor interface {
	Preprocess(page entity.RawPage) (entity.RawPage, error)
}

// Orchestrator runs the whole flow for one document. It owns no state
// between documents; every run is independent.
type Orchestrator struct {
	raster    Rasterizer
	pre       Preprocessor
	engine    ocr.Engine
	parser    *parse.Parser
	validator *validate.Validator
	debug     *debugstore.Store
	marker    *regexp.Regexp
	workers   int
	sub       common.SubmissionContext
	logger    *slog.Logger

	// injectable for deterministic tests
	now   func() time.Time
	newID func() uuid.UUID
}

func NewOrchestrator(
	raster Rasterizer,
	pre Preprocessor,
	engine ocr.Engine,
	parser *parse.Parser,
	validator *validate.Validator,
	debug *debugstore.Store,
	cfg common.PipelineConfig,
	sub common.SubmissionContext,
	logger *slog.Logger,
) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	marker, err := regexp.Compile(cfg.FormMarker)
	if err != nil {
		return nil, common.NewAppError("BAD_FORM_MARKER", fmt.Sprintf("form marker %q does not compile", cfg.FormMarker), err)
	}
	workers := cfg.PageWorkers
	if workers <= 0 {
		workers = 4
	}
	return &Orchestrator{
		raster:    raster,
		pre:       pre,
		engine:    engine,
		parser:    parser,
		validator: validator,
		debug:     debug,
		marker:    marker,
		workers:   workers,
		sub:       sub,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.New,
	}, nil
}

// ProcessDocument runs the pipeline over one ingested document. Page-level
// failures are contained: the page yields empty text and the forms touching
// it carry a PAGE_SKIPPED warning. Document-level failures (bad PDF, context
// cancellation) abort the run with no partial records.
func (o *Orchestrator) ProcessDocument(ctx context.Context, doc entity.Document) (entity.ProcessJob, []entity.FormResult, error) {
	job := entity.ProcessJob{
		ID:         o.newID(),
		DocumentID: doc.ID,
		Status:     string(constants.JobStatusRunning),
		StartedAt:  o.now().UTC(),
	}

	pages, err := o.raster.Rasterize(ctx, doc.ID, doc.SourcePath)
	if err != nil {
		return o.fail(job, err), nil, err
	}

	texts, skipped, err := o.recognizePages(ctx, pages)
	if err != nil {
		return o.fail(job, err), nil, err
	}
	job.Status = string(constants.JobStatusOCROK)
	job.PagesSkipped = len(skipped)

	forms := o.groupForms(texts)
	job.FormsTotal = len(forms)

	results := make([]entity.FormResult, 0, len(forms))
	for formIdx, formPages := range forms {
		res := o.parser.Parse(formPages)
		extra := skipWarnings(formPages, skipped)
		vr := o.validator.Validate(res, o.parser.Rules().Required, extra)

		o.stamp(&res.Record, doc.ID, formIdx, formPages)
		res.Record.Status = string(vr.Status)

		if vr.Status != constants.RecordInvalid {
			job.FormsValid++
		} else {
			job.NeedsReview = true
		}
		if vr.Status == constants.RecordValidWithWarnings {
			job.NeedsReview = true
		}

		o.logger.Info("form processed",
			"document_id", doc.ID,
			"form_index", formIdx,
			"pages", res.Record.Pages,
			"status", vr.Status,
			"warnings", len(vr.Warnings))

		results = append(results, entity.FormResult{
			Record:      res.Record,
			Validation:  vr,
			Extractions: res.Extractions,
		})
	}

	job.Status = string(constants.JobStatusParsed)
	done := o.now().UTC()
	job.FinishedAt = &done
	return job, results, nil
}

// recognizePages fans pages out across the worker pool and reassembles the
// results strictly by page index. A page whose preprocess or OCR fails after
// retries lands in skipped with empty text; context errors abort everything.
func (o *Orchestrator) recognizePages(ctx context.Context, pages []entity.RawPage) ([]entity.PageText, map[int]bool, error) {
	texts := make([]entity.PageText, len(pages))
	skipped := make(map[int]bool)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range pages {
		page := pages[i]
		g.Go(func() error {
			text, err := o.recognizeOne(gctx, page)
			if err != nil {
				if gctx.Err() != nil || !pageFatal(err) {
					return err
				}
				o.logger.Warn("page skipped", "page", page.Index, "err", err)
				mu.Lock()
				skipped[page.Index] = true
				mu.Unlock()
				text = entity.NewPageText(page.Index, nil, nil)
			}
			texts[page.Index] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return texts, skipped, nil
}

func (o *Orchestrator) recognizeOne(ctx context.Context, page entity.RawPage) (entity.PageText, error) {
	pre, err := o.pre.Preprocess(page)
	if err != nil {
		return entity.PageText{}, err
	}
	o.debug.WriteAsync(page.DocumentID, page.Index, "pre", pre.PNG)

	text, err := o.engine.Recognize(ctx, pre)
	if err != nil {
		return entity.PageText{}, err
	}
	o.logger.Debug("page recognized",
		"page", page.Index,
		"lines", text.LineCount(),
		"confidence", ocr.PageConfidence(text))
	return text, nil
}

// pageFatal reports whether err is contained to one page rather than the
// whole document.
func pageFatal(err error) bool {
	return errors.Is(err, common.ErrImageDecode) || errors.Is(err, common.ErrExtraction)
}

// groupForms splits the ordered page texts into logical forms. A page whose
// text matches the form marker starts a new form; pages before the first
// marker (or when no marker appears at all) form an implicit first form.
func (o *Orchestrator) groupForms(texts []entity.PageText) [][]entity.PageText {
	var forms [][]entity.PageText
	for _, t := range texts {
		if len(forms) == 0 || o.pageStartsForm(t) {
			forms = append(forms, []entity.PageText{t})
			continue
		}
		last := len(forms) - 1
		forms[last] = append(forms[last], t)
	}
	return forms
}

func (o *Orchestrator) pageStartsForm(t entity.PageText) bool {
	for i := 0; i < t.LineCount(); i++ {
		if o.marker.MatchString(t.Line(i)) {
			return true
		}
	}
	return false
}

// stamp assigns identity and provenance to an emitted record. Submission
// context fills reporting defaults only where the form itself said nothing.
func (o *Orchestrator) stamp(rec *entity.ConsultationRecord, docID uuid.UUID, formIdx int, formPages []entity.PageText) {
	rec.ID = o.newID()
	rec.DocumentID = docID
	rec.FormIndex = formIdx
	rec.CreatedAt = o.now().UTC()
	rec.Pages = rec.Pages[:0]
	for _, p := range formPages {
		rec.Pages = append(rec.Pages, p.Index())
	}
	sort.Ints(rec.Pages)
	if rec.Program == "" {
		rec.Program = o.sub.Program
	}
	if rec.City == "" {
		rec.City = o.sub.DefaultCity
	}
}

func (o *Orchestrator) fail(job entity.ProcessJob, err error) entity.ProcessJob {
	job.Status = string(constants.JobStatusFailed)
	msg := err.Error()
	job.ErrorMessage = &msg
	done := o.now().UTC()
	job.FinishedAt = &done
	o.logger.Error("document failed", "document_id", job.DocumentID, "err", err)
	return job
}

func skipWarnings(formPages []entity.PageText, skipped map[int]bool) []entity.Warning {
	var warns []entity.Warning
	for _, p := range formPages {
		if skipped[p.Index()] {
			warns = append(warns, entity.Warning{
				Code:     entity.WarnPageSkipped,
				Message:  fmt.Sprintf("page %d yielded no text and was skipped", p.Index()),
				Severity: entity.SeverityWarning,
			})
		}
	}
	return warns
}
