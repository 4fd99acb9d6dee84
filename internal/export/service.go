// Package export produces review spreadsheets from stored records.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/scanwell/consult-intake/internal/entity"
	"github.com/scanwell/consult-intake/internal/store"
)

// Service is a tiny façade over the record repository that produces XLSX
// bytes for manual review and monthly reporting.
type Service struct {
	records store.RecordRepository
	logger  *slog.Logger
}

func NewService(records store.RecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

var headers = []string{
	"Business Name",
	"Contact Name",
	"Session Date",
	"Advisor",
	"Consultation Type",
	"Business Stage",
	"Phone",
	"Email",
	"City",
	"Zip",
	"Status",
	"Warnings",
	"Pages",
	"Notes",
}

// ExportDocumentXLSX returns a workbook with one row per emitted record for
// the given document, in form order.
func (s *Service) ExportDocumentXLSX(ctx context.Context, documentID uuid.UUID) ([]byte, error) {
	results, err := s.records.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return s.workbook(results, "document_id", documentID.String())
}

// ExportByStatusXLSX returns a workbook of every stored record with the given
// validation status. Reviewers pull the INVALID sheet daily.
func (s *Service) ExportByStatusXLSX(ctx context.Context, status string) ([]byte, error) {
	results, err := s.records.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return s.workbook(results, "status", status)
}

func (s *Service) workbook(results []entity.FormResult, logKey, logVal string) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Consultations"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, res := range results {
		rec := res.Record
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, rec.BusinessName)
		write(2, rec.ContactName)
		if rec.SessionDate != nil {
			write(3, rec.SessionDate.Format("2006-01-02"))
		} else {
			write(3, "")
		}
		write(4, rec.Advisor)
		write(5, rec.ConsultationType)
		write(6, rec.BusinessStage)
		write(7, rec.Phone)
		write(8, rec.Email)
		write(9, rec.City)
		write(10, rec.Zip)
		write(11, string(res.Validation.Status))
		write(12, warningSummary(res.Validation.Warnings))
		write(13, pageList(rec.Pages))
		write(14, truncate(rec.Notes, 140))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "B", 26)
	_ = f.SetColWidth(sheet, "C", "C", 14)
	_ = f.SetColWidth(sheet, "D", "F", 22)
	_ = f.SetColWidth(sheet, "G", "J", 16)
	_ = f.SetColWidth(sheet, "K", "K", 20)
	_ = f.SetColWidth(sheet, "L", "L", 48)
	_ = f.SetColWidth(sheet, "M", "M", 10)
	_ = f.SetColWidth(sheet, "N", "N", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		logKey, logVal,
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func warningSummary(warns []entity.Warning) string {
	if len(warns) == 0 {
		return ""
	}
	parts := make([]string, 0, len(warns))
	for _, w := range warns {
		if w.Field != "" {
			parts = append(parts, fmt.Sprintf("%s(%s)", w.Code, w.Field))
			continue
		}
		parts = append(parts, w.Code)
	}
	return strings.Join(parts, "; ")
}

func pageList(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ",")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
