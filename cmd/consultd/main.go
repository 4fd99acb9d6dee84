// consultd watches drop folders for scanned consultation forms and runs the
// intake pipeline on every file the scanner delivers.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/internal/async"
	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/debugstore"
	"github.com/scanwell/consult-intake/internal/ingest"
	"github.com/scanwell/consult-intake/internal/ocr"
	"github.com/scanwell/consult-intake/internal/parse"
	"github.com/scanwell/consult-intake/internal/pipeline"
	"github.com/scanwell/consult-intake/internal/preprocess"
	"github.com/scanwell/consult-intake/internal/render"
	"github.com/scanwell/consult-intake/internal/store"
	"github.com/scanwell/consult-intake/internal/validate"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	roots := os.Getenv("WATCH_DIRS")
	if roots == "" {
		logger.Error("WATCH_DIRS env var is required (comma-separated directories)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	docsRepo := store.NewDocumentRepository(db, logger)
	jobsRepo := store.NewJobRepository(db, logger)
	recordsRepo := store.NewRecordRepository(db, logger)
	ingestor := ingest.NewFSIngestor(docsRepo, logger)

	orch, err := buildOrchestrator(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	handler := func(ctx context.Context, path string) error {
		return handleFile(ctx, path, ingestor, docsRepo, jobsRepo, recordsRepo, orch, logger)
	}
	queue := async.NewIntakeQueue(handler, logger,
		async.WithWorkers(2),
		async.WithQueueSize(256),
		async.WithProcessTimeout(5*time.Minute))

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       strings.Split(roots, ","),
		InitialScan: true,
		Debounce:    2 * time.Second,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	logger.Info("watching for scanned forms", "roots", roots)
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			queue.Shutdown(drainCtx)
			cancel()
			return
		case err, ok := <-watchErrs:
			if ok {
				logger.Error("watcher error", "error", err)
			}
		case path, ok := <-events:
			if !ok {
				return
			}
			_ = queue.Enqueue(ctx, async.Job{Path: path, SubmittedAt: time.Now().UTC()})
		}
	}
}

func handleFile(
	ctx context.Context,
	path string,
	ingestor ingest.Ingestor,
	docs store.DocumentRepository,
	jobs store.JobRepository,
	records store.RecordRepository,
	orch *pipeline.Orchestrator,
	logger *slog.Logger,
) error {
	res, err := ingestor.IngestPath(ctx, path)
	if err != nil {
		return err
	}
	if res.Deduplicated {
		logger.Info("already processed, skipping", "path", path)
		return nil
	}

	docID, err := uuid.Parse(res.DocumentID)
	if err != nil {
		return err
	}
	doc, err := docs.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	job, forms, err := orch.ProcessDocument(ctx, *doc)
	if saveErr := jobs.Save(ctx, job); saveErr != nil {
		logger.Error("failed to save job", "job_id", job.ID, "error", saveErr)
	}
	if err != nil {
		return err
	}
	for _, form := range forms {
		if err := records.Save(ctx, form); err != nil {
			logger.Error("failed to save record", "record_id", form.Record.ID, "error", err)
		}
	}
	logger.Info("document processed",
		"document_id", docID,
		"forms_total", job.FormsTotal,
		"forms_valid", job.FormsValid,
		"pages_skipped", job.PagesSkipped,
		"needs_review", job.NeedsReview)
	return nil
}

func buildOrchestrator(cfg *common.Config, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	rules := parse.DefaultRuleSet()
	if cfg.Pipeline.RulesPath != "" {
		loaded, err := parse.LoadRuleSet(cfg.Pipeline.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	raster := render.NewRasterizer(render.Config{
		Pdftoppm: cfg.Render.Pdftoppm,
		DPI:      cfg.Render.DPI,
		MaxPages: cfg.Render.MaxPages,
	}, logger)
	pre := preprocess.New(preprocess.Config{
		TargetDPI:      cfg.Preprocess.TargetDPI,
		Binarize:       cfg.Preprocess.Binarize,
		ThresholdBlock: cfg.Preprocess.ThresholdBlock,
		ThresholdBias:  cfg.Preprocess.ThresholdBias,
		DeskewMaxAngle: cfg.Preprocess.DeskewMaxAngle,
	}, logger)
	engine := ocr.NewRetrying(
		ocr.NewTesseractEngine(ocr.Config{
			Languages:   cfg.OCR.Languages,
			PSM:         cfg.OCR.PSM,
			TessdataDir: cfg.OCR.TessdataDir,
		}),
		cfg.OCR.MaxRetries, cfg.OCR.RetryBackoff, logger)
	debug := debugstore.New(cfg.Preprocess.DebugDir, logger)

	return pipeline.NewOrchestrator(
		raster, pre, engine,
		parse.NewParser(rules, logger),
		validate.New(logger),
		debug,
		cfg.Pipeline, cfg.Submission, logger)
}
