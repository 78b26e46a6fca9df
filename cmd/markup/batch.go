package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/async"
	"github.com/joseph-ayodele/pdf-markup/internal/ingest"
)

func batchCmd() *cobra.Command {
	var outDir string
	var instruction string
	var apiKey string
	var models string
	var workers int
	var watch bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Apply one instruction to every PDF under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(instruction) == "" {
				return fmt.Errorf("an instruction is required (use --prompt)")
			}
			logger := cliLogger(verbose)

			root := args[0]
			if fi, err := os.Stat(root); err != nil {
				return err
			} else if !fi.IsDir() {
				return fmt.Errorf("%s is not a directory", root)
			}
			if outDir == "" {
				outDir = filepath.Join(filepath.Dir(filepath.Clean(root)), "edited")
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			absOut, err := filepath.Abs(outDir)
			if err != nil {
				return err
			}

			queue := async.NewEditQueue(newProcessor(logger, models), logger,
				async.WithWorkers(workers),
			)

			outPath := func(in string) (string, error) {
				rel, err := filepath.Rel(root, in)
				if err != nil {
					rel = filepath.Base(in)
				}
				out := filepath.Join(outDir, rel)
				if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return "", err
				}
				return out, nil
			}
			enqueue := func(path string) error {
				out, err := outPath(path)
				if err != nil {
					return err
				}
				return queue.Enqueue(cmd.Context(), async.Job{
					Path:        path,
					OutPath:     out,
					Instruction: instruction,
					APIKey:      apiKey,
					SubmittedAt: time.Now(),
				})
			}

			candidates, stats, err := ingest.Scan(root, true)
			if err != nil {
				return err
			}
			logger.Info("scan complete",
				"dir", root,
				"matched", stats.Matched,
				"deduplicated", stats.Deduplicated,
				"failed", stats.Failed,
			)
			for _, c := range candidates {
				if err := enqueue(c.Path); err != nil {
					return err
				}
			}

			if watch {
				evCh, errCh, err := ingest.Watch(cmd.Context(), ingest.WatchConfig{
					Roots:    []string{root},
					Debounce: 500 * time.Millisecond,
				}, logger)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "watching for new documents, Ctrl-C to stop")
				for evCh != nil || errCh != nil {
					select {
					case p, ok := <-evCh:
						if !ok {
							evCh = nil
							continue
						}
						// Never re-edit our own output.
						if abs, err := filepath.Abs(p); err == nil && strings.HasPrefix(abs, absOut+string(os.PathSeparator)) {
							continue
						}
						if err := enqueue(p); err != nil {
							logger.Error("enqueue failed", "path", p, "error", err)
						}
					case _, ok := <-errCh:
						if !ok {
							errCh = nil
						}
					}
				}
			}

			// Drain fully even when the watch context was canceled.
			drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			queue.Shutdown(drainCtx)
			printBatchSummary(cmd, queue.Outcomes(), stats, outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: <parent of dir>/edited)")
	cmd.Flags().StringVarP(&instruction, "prompt", "p", "", "what to change, in plain English")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key (default: GEMINI_API_KEY env)")
	cmd.Flags().StringVar(&models, "models", "", "comma-separated model names to try in order")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent edit workers")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and edit documents as they land")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline steps to stderr")
	return cmd
}

func printBatchSummary(cmd *cobra.Command, outcomes []async.Outcome, stats ingest.Stats, outDir string) {
	edited, noText, failed := 0, 0, 0
	for _, o := range outcomes {
		switch {
		case o.Err != nil || o.Status == constants.JobStatusFailed:
			failed++
		case o.Status == constants.JobStatusNoText:
			noText++
		default:
			edited++
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Batch edit complete!\n")
	fmt.Fprintf(w, "- Files matched: %d (deduplicated: %d)\n", stats.Matched, stats.Deduplicated)
	fmt.Fprintf(w, "- Edited: %d\n", edited)
	if noText > 0 {
		fmt.Fprintf(w, "- No extractable text: %d\n", noText)
	}
	fmt.Fprintf(w, "- Failures: %d\n", failed)
	fmt.Fprintf(w, "- Output: %s\n", outDir)
}
