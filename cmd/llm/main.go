// Command runllm probes the edit oracle against one PDF. It runs extraction
// once, then asks for a plan N times and prints each reply as JSON, which
// makes model-to-model and run-to-run variance visible without touching the
// document.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joseph-ayodele/pdf-markup/internal/common"
	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
	"github.com/joseph-ayodele/pdf-markup/internal/llm/gemini"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 3 {
		logger.Error("usage: runllm <file.pdf> <instruction> [times]")
		os.Exit(2)
	}
	path := os.Args[1]
	instruction := os.Args[2]
	times := 1
	if len(os.Args) >= 4 {
		if n, err := strconv.Atoi(os.Args[3]); err == nil && n > 0 {
			times = n
		}
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if !common.ValidAPIKey(cfg.LLM.APIKey) {
		logger.Error("GEMINI_API_KEY env var is required")
		os.Exit(2)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ex := extract.NewExtractor(extract.DefaultConfig(), logger)
	doc, err := ex.Extract(ctx, data)
	if err != nil {
		logger.Error("extract failed", "path", path, "error", err)
		os.Exit(1)
	}
	if doc.Empty() {
		logger.Error("no extractable text", "path", path, "pages", doc.Stats.Pages)
		os.Exit(1)
	}
	logger.Info("extract.ok",
		"basename", filepath.Base(path),
		"pages", doc.Stats.Pages,
		"fragments", doc.Stats.Fragments,
		"characters", doc.Stats.Characters,
	)

	oracle, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:      cfg.LLM.APIKey,
		Models:      cfg.LLM.Models,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		logger.Error("oracle init", "error", err)
		os.Exit(1)
	}

	// Loop N times over the SAME document and instruction.
	for i := 1; i <= times; i++ {
		runCtx, cancelRun := context.WithTimeout(context.Background(), 2*time.Minute)
		start := time.Now()
		logger.Info("oracle.run.start", "iter", i, "basename", filepath.Base(path))

		plan, err := oracle.Propose(runCtx, llm.PlanRequest{
			DocumentText: doc.Text(),
			Instruction:  instruction,
		})
		cancelRun()

		if err != nil {
			logger.Error("oracle.run.error", "iter", i, "err", err)
		} else {
			logger.Info("oracle.run.ok",
				"iter", i,
				"model", plan.Model,
				"edits", len(plan.Edits),
				"dropped", len(plan.Dropped),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			printPlan(plan)
		}

		if i < times {
			time.Sleep(750 * time.Millisecond)
		}
	}

	logger.Info("done", "basename", filepath.Base(path), "times", times)
}

func printPlan(plan *llm.EditPlan) {
	b, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		slog.Error("marshal plan", "error", err)
		return
	}
	fmt.Println(string(b))
}
