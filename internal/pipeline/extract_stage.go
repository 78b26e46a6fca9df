package processor

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/pdf-markup/internal/extract"
)

type ExtractStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewExtractStage(tx extract.TextExtractor, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{TextExtractor: tx, Logger: logger}
}

// Run turns uploaded bytes into positioned fragments. An empty document is
// not an error here; the caller decides what "no text" means for it.
func (s *ExtractStage) Run(ctx context.Context, data []byte) (*extract.Document, error) {
	return s.TextExtractor.Extract(ctx, data)
}
