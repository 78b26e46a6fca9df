package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joseph-ayodele/pdf-markup/internal/common"
	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/history"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
	"github.com/joseph-ayodele/pdf-markup/internal/llm/gemini"
	"github.com/joseph-ayodele/pdf-markup/internal/locate"
	"github.com/joseph-ayodele/pdf-markup/internal/mutate"
	processor "github.com/joseph-ayodele/pdf-markup/internal/pipeline"
	"github.com/joseph-ayodele/pdf-markup/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A dead history database degrades /api/history but never blocks the
	// edit loop.
	hist, err := history.Open(ctx, history.Config{
		URL:         cfg.History.DSN,
		Path:        cfg.History.SQLitePath,
		DialTimeout: 3 * time.Second,
	}, logger)
	if err != nil {
		logger.Warn("history store unavailable, continuing without it", "error", err)
	} else {
		defer func() {
			if cerr := hist.Close(); cerr != nil {
				logger.Error("closing history store", "error", cerr)
			}
		}()
	}

	factory := func(ctx context.Context, apiKey string) (llm.Oracle, error) {
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:      apiKey,
			Models:      cfg.LLM.Models,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	}

	extractStage := processor.NewExtractStage(extract.NewExtractor(extract.DefaultConfig(), logger), logger)
	planStage := processor.NewPlanStage(factory, logger)
	applyStage := processor.NewApplyStage(
		locate.NewLocator(locate.DefaultConfig(), logger),
		mutate.NewMutator(mutate.DefaultConfig(), logger),
		logger,
	)

	srv := server.NewServer(cfg, logger, extractStage, planStage, applyStage, hist)
	srv.Sessions().Start(ctx)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("pdf-markup listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func newLogger(level, format string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lv}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
