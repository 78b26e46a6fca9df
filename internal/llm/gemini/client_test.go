package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/common"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
)

func newTestClient(gen generateFunc) *Client {
	return &Client{
		cfg: Config{
			Models:  []string{"model-a", "model-b", "model-c"},
			Timeout: 5 * time.Second,
		},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		generate: gen,
	}
}

const goodReply = `{"modifications":[{"type":"replace","original_text":"old","new_text":"new"}],"summary":"one edit"}`

// WHAT: the first model answers and its reply becomes the plan.
// WHY: the happy path must not touch later models in the list.
func TestPropose_FirstModelWins(t *testing.T) {
	var calls []string
	c := newTestClient(func(ctx context.Context, model, prompt string) (string, error) {
		calls = append(calls, model)
		return goodReply, nil
	})

	plan, err := c.Propose(context.Background(), llm.PlanRequest{DocumentText: "old text", Instruction: "edit"})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(calls) != 1 || calls[0] != "model-a" {
		t.Errorf("calls = %v, want only model-a", calls)
	}
	if len(plan.Edits) != 1 || plan.Edits[0].Target != "old" {
		t.Errorf("plan = %+v", plan)
	}
}

// WHAT: the first two models fail with transport errors.
// WHY: the fallback list exists exactly for quota and availability failures;
// the third model's reply must be used.
func TestPropose_ModelFallback(t *testing.T) {
	var calls []string
	c := newTestClient(func(ctx context.Context, model, prompt string) (string, error) {
		calls = append(calls, model)
		if model != "model-c" {
			return "", errors.New("quota exceeded")
		}
		return goodReply, nil
	})

	plan, err := c.Propose(context.Background(), llm.PlanRequest{Instruction: "edit"})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(calls) != 3 {
		t.Errorf("calls = %v, want all three models tried", calls)
	}
	if len(plan.Edits) != 1 {
		t.Errorf("plan = %+v", plan)
	}
}

// WHAT: every model fails.
// WHY: exhausting the list is the one transport condition that aborts the
// run, and it must surface as an OracleError carrying the last cause.
func TestPropose_AllModelsFail(t *testing.T) {
	c := newTestClient(func(ctx context.Context, model, prompt string) (string, error) {
		return "", errors.New("boom")
	})

	_, err := c.Propose(context.Background(), llm.PlanRequest{Instruction: "edit"})
	var oe *common.OracleError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want OracleError", err)
	}
}

// WHAT: a reply wrapped in a markdown fence with prose around the JSON.
// WHY: reply hygiene runs before parsing, so fenced or chatty output still
// yields a plan.
func TestPropose_FencedAndChattyReply(t *testing.T) {
	c := newTestClient(func(ctx context.Context, model, prompt string) (string, error) {
		return "Sure! Here is the plan:\n```json\n" + goodReply + "\n```", nil
	})

	plan, err := c.Propose(context.Background(), llm.PlanRequest{Instruction: "edit"})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(plan.Edits) != 1 {
		t.Errorf("plan = %+v", plan)
	}
}

// WHAT: a reply that breaks the schema but is still salvageable JSON.
// WHY: the lenient path keeps usable entries and records the dropped ones.
func TestPropose_LenientPath(t *testing.T) {
	c := newTestClient(func(ctx context.Context, model, prompt string) (string, error) {
		return `{"modifications":[
			{"kind":"replacement","old_text":"a","replacement":"b"},
			{"type":"replace","original_text":"no new text"}
		],"extra_key":true}`, nil
	})

	plan, err := c.Propose(context.Background(), llm.PlanRequest{Instruction: "edit"})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(plan.Edits) != 1 || plan.Edits[0].Target != "a" {
		t.Errorf("edits = %+v", plan.Edits)
	}
	if len(plan.Dropped) != 1 {
		t.Errorf("Dropped = %v, want one entry", plan.Dropped)
	}
}

// WHAT: an unparseable reply while the instruction carries a change pattern.
// WHY: parse failure does not advance the model list; recovery comes from the
// instruction itself.
func TestPropose_FallbackFromInstruction(t *testing.T) {
	var calls int
	c := newTestClient(func(ctx context.Context, model, prompt string) (string, error) {
		calls++
		return "I am sorry, I cannot help with that.", nil
	})

	req := llm.PlanRequest{
		DocumentText: "the old title stands here",
		Instruction:  `change 'the old title' to 'a new title'`,
	}
	plan, err := c.Propose(context.Background(), req)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, parse failures must not retry other models", calls)
	}
	if len(plan.Edits) != 1 || plan.Edits[0].Kind != constants.EditReplace {
		t.Errorf("plan = %+v", plan)
	}
}

// WHAT: an unparseable reply and an instruction nothing can be recovered from.
// WHY: with no plan and no fallback there is nothing to apply; the caller
// gets an OracleError rather than a silent empty plan.
func TestPropose_NothingUsable(t *testing.T) {
	c := newTestClient(func(ctx context.Context, model, prompt string) (string, error) {
		return "no json here", nil
	})

	_, err := c.Propose(context.Background(), llm.PlanRequest{DocumentText: "doc", Instruction: "tidy up"})
	var oe *common.OracleError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want OracleError", err)
	}
}

// WHAT: the prompt handed to the wire contains the document and instruction.
// WHY: Propose owns prompt assembly; a regression here silently degrades
// every plan.
func TestPropose_PromptAssembly(t *testing.T) {
	var seen string
	c := newTestClient(func(ctx context.Context, model, prompt string) (string, error) {
		seen = prompt
		return goodReply, nil
	})

	req := llm.PlanRequest{DocumentText: "--- Page 1 ---\nbody", Instruction: "highlight body"}
	if _, err := c.Propose(context.Background(), req); err != nil {
		t.Fatalf("Propose: %v", err)
	}
	for _, want := range []string{"--- Page 1 ---", "highlight body", "Respond ONLY with valid JSON"} {
		if !strings.Contains(seen, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

// WHAT: a canceled context stops the model walk.
// WHY: exhausting six more models after cancellation wastes the caller's
// deadline for nothing.
func TestPropose_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	c := newTestClient(func(ctx context.Context, model, prompt string) (string, error) {
		calls++
		cancel()
		return "", ctx.Err()
	})

	_, err := c.Propose(ctx, llm.PlanRequest{Instruction: "edit"})
	if err == nil {
		t.Fatal("want error after cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want walk stopped at 1", calls)
	}
}
