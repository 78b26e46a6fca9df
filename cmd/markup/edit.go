package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
	"github.com/joseph-ayodele/pdf-markup/internal/llm/gemini"
	"github.com/joseph-ayodele/pdf-markup/internal/locate"
	"github.com/joseph-ayodele/pdf-markup/internal/mutate"
	processor "github.com/joseph-ayodele/pdf-markup/internal/pipeline"
)

func editCmd() *cobra.Command {
	var out string
	var instruction string
	var apiKey string
	var models string
	var asJSON bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "edit <pdf>",
		Short: "Apply an edit instruction to a PDF and write the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(instruction) == "" {
				return fmt.Errorf("an instruction is required (use --prompt)")
			}
			logger := cliLogger(verbose)

			in := args[0]
			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			proc := newProcessor(logger, models)

			res, err := proc.Process(cmd.Context(), processor.Request{
				Data:        data,
				Filename:    filepath.Base(in),
				Instruction: instruction,
				APIKey:      apiKey,
			})
			if err != nil {
				return err
			}
			if res.Status == constants.JobStatusNoText {
				return fmt.Errorf("%s has no extractable text (scanned or image-only document)", in)
			}

			if out == "" {
				base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
				out = fmt.Sprintf("edited_%s_%s.pdf", base, time.Now().Format(constants.TimestampLayout))
			}
			if err := os.WriteFile(out, res.Output, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(newEditReport(res, out))
			}
			printRun(cmd, res, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: edited_<name>_<timestamp>.pdf)")
	cmd.Flags().StringVarP(&instruction, "prompt", "p", "", "what to change, in plain English")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key (default: GEMINI_API_KEY env)")
	cmd.Flags().StringVar(&models, "models", "", "comma-separated model names to try in order")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run report as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline steps to stderr")
	return cmd
}

// editReport is the machine-readable shape of one CLI run.
type editReport struct {
	Status  constants.JobStatus `json:"status"`
	Output  string              `json:"output"`
	Model   string              `json:"model,omitempty"`
	Summary string              `json:"summary,omitempty"`
	Pages   int                 `json:"pages"`
	Applied int                 `json:"applied"`
	Missed  int                 `json:"missed"`
	Skipped int                 `json:"skipped"`
	Dropped []string            `json:"dropped,omitempty"`
}

func newEditReport(res *processor.Result, out string) editReport {
	return editReport{
		Status:  res.Status,
		Output:  out,
		Model:   res.Model,
		Summary: res.Summary,
		Pages:   res.Stats.Pages,
		Applied: len(res.Applied),
		Missed:  len(res.Missed),
		Skipped: len(res.Skipped),
		Dropped: res.Dropped,
	}
}

func printRun(cmd *cobra.Command, res *processor.Result, out string) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "applied %d of %d edits -> %s\n", len(res.Applied), res.Proposed(), out)
	if res.Model != "" {
		fmt.Fprintf(w, "model: %s\n", res.Model)
	}
	if res.Summary != "" {
		fmt.Fprintf(w, "summary: %s\n", res.Summary)
	}
	for _, a := range res.Applied {
		if a.Edit.Kind == constants.EditReplace {
			fmt.Fprintf(w, "  page %d  replace %q -> %q (match %.2f)\n", a.Page, a.Edit.Target, a.Edit.Replacement, a.Confidence)
		} else {
			fmt.Fprintf(w, "  page %d  highlight %q (match %.2f)\n", a.Page, a.Edit.Target, a.Confidence)
		}
	}
	for _, m := range res.Missed {
		fmt.Fprintf(w, "  not found: %q (%s)\n", m.Edit.Target, m.Reason)
	}
	for _, sk := range res.Skipped {
		fmt.Fprintf(w, "  skipped: %q on page %d (%s)\n", sk.Edit.Target, sk.Page, sk.Reason)
	}
}

// newProcessor builds the full edit pipeline against Gemini. An empty
// models list falls back to the default ladder.
func newProcessor(logger *slog.Logger, models string) *processor.Processor {
	factory := func(ctx context.Context, key string) (llm.Oracle, error) {
		return gemini.NewClient(ctx, gemini.Config{
			APIKey: key,
			Models: splitModels(models),
		}, logger)
	}
	return processor.NewProcessor(logger,
		processor.NewExtractStage(extract.NewExtractor(extract.DefaultConfig(), logger), logger),
		processor.NewPlanStage(factory, logger),
		processor.NewApplyStage(
			locate.NewLocator(locate.DefaultConfig(), logger),
			mutate.NewMutator(mutate.DefaultConfig(), logger),
			logger,
		),
	)
}

// cliLogger keeps stdout clean for results; pipeline logs go to stderr and
// only at -v, without time/level noise.
func cliLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func splitModels(s string) []string {
	var models []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}
