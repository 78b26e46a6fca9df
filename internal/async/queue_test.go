// Tests drive the worker pool with a stub pipeline. What matters is the
// accounting: every enqueued document must land in the outcome list exactly
// once, with its output written only on success, because the batch summary
// is built solely from that list.
package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/pdf-markup/constants"
	processor "github.com/joseph-ayodele/pdf-markup/internal/pipeline"
)

type stubRunner struct {
	mu    sync.Mutex
	calls int
	res   *processor.Result
	err   error
}

func (s *stubRunner) Process(_ context.Context, _ processor.Request) (*processor.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func (s *stubRunner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func succeededResult() *processor.Result {
	return &processor.Result{
		Status:  constants.JobStatusSucceeded,
		Output:  []byte("edited bytes"),
		Applied: []processor.AppliedEdit{{Page: 1, Confidence: 1}},
	}
}

func TestQueueProcessesAllJobs(t *testing.T) {
	dir := t.TempDir()
	run := &stubRunner{res: succeededResult()}
	q := NewEditQueue(run, testLogger(), WithWorkers(2), WithQueueSize(8))

	names := []string{"a.pdf", "b.pdf", "c.pdf"}
	for _, n := range names {
		in := filepath.Join(dir, n)
		if err := os.WriteFile(in, []byte("input "+n), 0o644); err != nil {
			t.Fatal(err)
		}
		err := q.Enqueue(context.Background(), Job{
			Path:        in,
			OutPath:     filepath.Join(dir, "out_"+n),
			Instruction: "replace the total",
			SubmittedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("Enqueue(%s) = %v", n, err)
		}
	}
	q.Shutdown(context.Background())

	outcomes := q.Outcomes()
	if len(outcomes) != len(names) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(names))
	}
	if run.callCount() != len(names) {
		t.Errorf("pipeline calls = %d, want %d", run.callCount(), len(names))
	}

	byPath := make(map[string]Outcome, len(outcomes))
	for _, o := range outcomes {
		byPath[filepath.Base(o.Path)] = o
	}
	for _, n := range names {
		o, ok := byPath[n]
		if !ok {
			t.Fatalf("no outcome for %s", n)
		}
		if o.Status != constants.JobStatusSucceeded {
			t.Errorf("%s status = %s, want %s", n, o.Status, constants.JobStatusSucceeded)
		}
		if o.Applied != 1 {
			t.Errorf("%s applied = %d, want 1", n, o.Applied)
		}
		data, err := os.ReadFile(o.OutPath)
		if err != nil {
			t.Fatalf("reading %s output: %v", n, err)
		}
		if string(data) != "edited bytes" {
			t.Errorf("%s output = %q", n, data)
		}
	}
}

func TestQueueRecordsReadFailure(t *testing.T) {
	dir := t.TempDir()
	run := &stubRunner{res: succeededResult()}
	q := NewEditQueue(run, testLogger(), WithWorkers(1))

	missing := filepath.Join(dir, "nope.pdf")
	if err := q.Enqueue(context.Background(), Job{Path: missing, OutPath: filepath.Join(dir, "out.pdf")}); err != nil {
		t.Fatal(err)
	}
	q.Shutdown(context.Background())

	outcomes := q.Outcomes()
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	o := outcomes[0]
	if o.Status != constants.JobStatusFailed || o.Err == nil {
		t.Errorf("outcome = %+v, want FAILED with error", o)
	}
	if o.OutPath != "" {
		t.Errorf("OutPath = %q, want empty on failure", o.OutPath)
	}
	if run.callCount() != 0 {
		t.Errorf("pipeline calls = %d, want 0 for unreadable input", run.callCount())
	}
}

func TestQueuePipelineErrorFailsJob(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(in, []byte("input"), 0o644); err != nil {
		t.Fatal(err)
	}

	run := &stubRunner{err: errors.New("oracle failed: all models exhausted")}
	q := NewEditQueue(run, testLogger(), WithWorkers(1))
	if err := q.Enqueue(context.Background(), Job{Path: in, OutPath: filepath.Join(dir, "out.pdf")}); err != nil {
		t.Fatal(err)
	}
	q.Shutdown(context.Background())

	outcomes := q.Outcomes()
	if len(outcomes) != 1 || outcomes[0].Status != constants.JobStatusFailed || outcomes[0].Err == nil {
		t.Fatalf("outcomes = %+v, want one FAILED with error", outcomes)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(err) {
		t.Errorf("output file written despite pipeline failure")
	}
}

func TestQueueNoTextSkipsWrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "scan.pdf")
	if err := os.WriteFile(in, []byte("input"), 0o644); err != nil {
		t.Fatal(err)
	}

	run := &stubRunner{res: &processor.Result{Status: constants.JobStatusNoText}}
	q := NewEditQueue(run, testLogger(), WithWorkers(1))
	if err := q.Enqueue(context.Background(), Job{Path: in, OutPath: filepath.Join(dir, "out.pdf")}); err != nil {
		t.Fatal(err)
	}
	q.Shutdown(context.Background())

	outcomes := q.Outcomes()
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	o := outcomes[0]
	if o.Status != constants.JobStatusNoText || o.Err != nil || o.OutPath != "" {
		t.Errorf("outcome = %+v, want clean NO_TEXT with no output", o)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(err) {
		t.Errorf("output file written for a document without text")
	}
}

func TestEnqueueAfterShutdownIsNoOp(t *testing.T) {
	run := &stubRunner{res: succeededResult()}
	q := NewEditQueue(run, testLogger(), WithWorkers(1))
	q.Shutdown(context.Background())

	if err := q.Enqueue(context.Background(), Job{Path: "late.pdf"}); err != nil {
		t.Fatalf("Enqueue after shutdown = %v, want nil", err)
	}
	if got := len(q.Outcomes()); got != 0 {
		t.Errorf("outcomes after late enqueue = %d, want 0", got)
	}
}
