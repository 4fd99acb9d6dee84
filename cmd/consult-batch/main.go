package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/debugstore"
	"github.com/scanwell/consult-intake/internal/export"
	"github.com/scanwell/consult-intake/internal/ingest"
	"github.com/scanwell/consult-intake/internal/ocr"
	"github.com/scanwell/consult-intake/internal/parse"
	"github.com/scanwell/consult-intake/internal/pipeline"
	"github.com/scanwell/consult-intake/internal/preprocess"
	"github.com/scanwell/consult-intake/internal/render"
	"github.com/scanwell/consult-intake/internal/store"
	"github.com/scanwell/consult-intake/internal/submit"
	"github.com/scanwell/consult-intake/internal/validate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir = flag.String("dir", "", "directory of scanned forms to process (required)")
		out = flag.String("out", "", "output XLSX file path (defaults to parent directory)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "consultations.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
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

	orch, err := buildOrchestrator(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ingestor := ingest.NewFSIngestor(docsRepo, logger)

	logger.Info("starting ingestion", "dir", *dir)
	results, stats, err := ingestor.IngestDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned, "matched", stats.Matched,
		"succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated,
		"failed", stats.Failed)

	exported := uuid.Nil
	for _, r := range results {
		if r.Err != "" || r.Deduplicated {
			continue
		}
		docID, err := uuid.Parse(r.DocumentID)
		if err != nil {
			continue
		}
		doc, err := docsRepo.GetByID(ctx, docID)
		if err != nil {
			logger.Error("failed to load document", "document_id", docID, "error", err)
			continue
		}

		job, forms, err := orch.ProcessDocument(ctx, *doc)
		if saveErr := jobsRepo.Save(ctx, job); saveErr != nil {
			logger.Error("failed to save job", "job_id", job.ID, "error", saveErr)
		}
		if err != nil {
			logger.Error("document processing failed", "document_id", docID, "error", err)
			continue
		}
		for _, form := range forms {
			if err := recordsRepo.Save(ctx, form); err != nil {
				logger.Error("failed to save record", "record_id", form.Record.ID, "error", err)
				continue
			}
			payload, err := submit.MapRecord(form.Record, cfg.Submission)
			if err != nil {
				// invalid records stay in the review queue
				continue
			}
			logger.Info("submission payload ready",
				"record_id", form.Record.ID,
				"business_name", payload["business_name"],
				"fields", len(payload))
		}
		exported = docID
		logger.Info("document processed",
			"document_id", docID,
			"forms_total", job.FormsTotal,
			"forms_valid", job.FormsValid,
			"pages_skipped", job.PagesSkipped)
	}

	if exported == uuid.Nil {
		logger.Info("nothing new to export")
		return
	}

	exporter := export.NewService(recordsRepo, logger)
	review, err := exporter.ExportByStatusXLSX(ctx, string(constants.RecordInvalid))
	if err != nil {
		logger.Error("failed to build review export", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, review, 0o644); err != nil {
		logger.Error("failed to write export file", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("review export written", "path", *out)
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
