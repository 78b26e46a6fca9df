package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/entity"
	"github.com/joseph-ayodele/pdf-markup/internal/history"
)

// Service produces edit-history reports as XLSX or CSV bytes.
type Service struct {
	store  history.Store
	logger *slog.Logger
}

func NewService(store history.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

var reportHeaders = []string{
	"Started",
	"Filename",
	"Size",
	"Instruction",
	"Status",
	"Pages",
	"Fragments",
	"Proposed",
	"Applied",
	"Missed",
	"Model",
	"Error",
	"Finished",
}

// ExportJobsXLSX returns a workbook with one row per recorded edit run,
// newest first.
func (s *Service) ExportJobsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	jobs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Edit History"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, j := range jobs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		for col, v := range reportRow(j) {
			write(col+1, v)
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 20) // started
	_ = f.SetColWidth(sheet, "B", "B", 30) // filename
	_ = f.SetColWidth(sheet, "C", "C", 10) // size
	_ = f.SetColWidth(sheet, "D", "D", 48) // instruction
	_ = f.SetColWidth(sheet, "E", "E", 12) // status
	_ = f.SetColWidth(sheet, "K", "K", 22) // model
	_ = f.SetColWidth(sheet, "L", "L", 48) // error
	_ = f.SetColWidth(sheet, "M", "M", 20) // finished

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(jobs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ExportJobsCSV returns the same report as CSV.
func (s *Service) ExportJobsCSV(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	jobs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeaders); err != nil {
		return nil, err
	}
	for _, j := range jobs {
		record := make([]string, len(reportHeaders))
		for i, v := range reportRow(j) {
			record[i] = fmt.Sprintf("%v", v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	s.logger.Info("export.csv.ok",
		"rows", len(jobs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// reportRow renders one job in reportHeaders order.
func reportRow(j entity.EditJob) []any {
	model := ""
	if j.ModelName != nil {
		model = *j.ModelName
	}
	errMsg := ""
	if j.ErrorMessage != nil {
		errMsg = *j.ErrorMessage
	}
	finished := ""
	if j.FinishedAt != nil {
		finished = j.FinishedAt.Format("2006-01-02 15:04:05")
	}
	return []any{
		j.StartedAt.Format("2006-01-02 15:04:05"),
		j.Filename,
		constants.FormatFileSize(j.FileSize),
		truncate(j.Instruction, 140),
		j.Status,
		j.Pages,
		j.Fragments,
		j.EditsProposed,
		j.EditsApplied,
		j.EditsMissed,
		model,
		truncate(errMsg, 140),
		finished,
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
