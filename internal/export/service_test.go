package export

// WHAT: exercises the history report renderers against a real sqlite-backed
// store.
// WHY: the XLSX and CSV outputs feed the history download endpoints; column
// order and newest-first ordering are part of that contract.

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/entity"
	"github.com/joseph-ayodele/pdf-markup/internal/history"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func emptyStore(t *testing.T) history.Store {
	t.Helper()
	st, err := history.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "history.db"), testLogger())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// seededStore records one finished run and one failed run, an hour apart.
func seededStore(t *testing.T) history.Store {
	t.Helper()
	st := emptyStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	older := &entity.EditJob{
		Filename:    "invoice.pdf",
		FileSize:    2048,
		ContentHash: "aaa111",
		Instruction: "replace the total with 99.00",
		StartedAt:   base,
	}
	if err := st.Start(ctx, older); err != nil {
		t.Fatalf("start older: %v", err)
	}
	err := st.Finish(ctx, older.ID, history.Outcome{
		Status:     constants.JobStatusSucceeded,
		ModelName:  "gemini-2.5-flash",
		Pages:      2,
		Fragments:  40,
		Characters: 950,
		Proposed:   4,
		Applied:    3,
		Missed:     1,
	})
	if err != nil {
		t.Fatalf("finish older: %v", err)
	}

	newer := &entity.EditJob{
		Filename:    "contract.pdf",
		FileSize:    512,
		ContentHash: "bbb222",
		Instruction: "highlight every deadline",
		StartedAt:   base.Add(time.Hour),
	}
	if err := st.Start(ctx, newer); err != nil {
		t.Fatalf("start newer: %v", err)
	}
	err = st.Finish(ctx, newer.ID, history.Outcome{
		Status:       constants.JobStatusFailed,
		ErrorMessage: "model unavailable",
	})
	if err != nil {
		t.Fatalf("finish newer: %v", err)
	}
	return st
}

func TestExportJobsXLSX(t *testing.T) {
	svc := NewService(seededStore(t), testLogger())

	out, err := svc.ExportJobsXLSX(context.Background(), 10)
	if err != nil {
		t.Fatalf("ExportJobsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Edit History")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if !slices.Equal(rows[0], reportHeaders) {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][1] != "contract.pdf" || rows[2][1] != "invoice.pdf" {
		t.Errorf("want newest first, got %q then %q", rows[1][1], rows[2][1])
	}

	failed := rows[1]
	if failed[4] != string(constants.JobStatusFailed) {
		t.Errorf("status = %q", failed[4])
	}
	if failed[11] != "model unavailable" {
		t.Errorf("error cell = %q", failed[11])
	}

	succeeded := rows[2]
	if succeeded[2] != "2.0 KB" {
		t.Errorf("size cell = %q, want 2.0 KB", succeeded[2])
	}
	if succeeded[5] != "2" || succeeded[7] != "4" || succeeded[8] != "3" || succeeded[9] != "1" {
		t.Errorf("stat cells = %v", succeeded[5:10])
	}
	if succeeded[10] != "gemini-2.5-flash" {
		t.Errorf("model cell = %q", succeeded[10])
	}
	if succeeded[12] == "" {
		t.Errorf("finished cell is empty")
	}
}

func TestExportJobsCSV(t *testing.T) {
	svc := NewService(seededStore(t), testLogger())

	out, err := svc.ExportJobsCSV(context.Background(), 10)
	if err != nil {
		t.Fatalf("ExportJobsCSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2", len(records))
	}
	if !slices.Equal(records[0], reportHeaders) {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != "contract.pdf" || records[1][4] != string(constants.JobStatusFailed) {
		t.Errorf("newest row = %v", records[1])
	}
	if records[2][3] != "replace the total with 99.00" {
		t.Errorf("instruction = %q", records[2][3])
	}
	if records[2][8] != "3" {
		t.Errorf("applied = %q", records[2][8])
	}
}

func TestExportEmptyHistory(t *testing.T) {
	svc := NewService(emptyStore(t), testLogger())

	xout, err := svc.ExportJobsXLSX(context.Background(), 10)
	if err != nil {
		t.Fatalf("ExportJobsXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(xout))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Edit History")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}

	cout, err := svc.ExportJobsCSV(context.Background(), 10)
	if err != nil {
		t.Fatalf("ExportJobsCSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(cout)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want header only", len(records))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"overflowing text", 9, "overflow…"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
