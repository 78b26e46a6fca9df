package mutate

import (
	"log/slog"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/extract"
	"github.com/joseph-ayodele/pdf-markup/internal/llm"
)

// Yellow is the default highlight fill.
var Yellow = extract.RGB{R: 1, G: 1, B: 0}

type Config struct {
	// HighlightColor fills highlight rectangles.
	HighlightColor extract.RGB
	// MinScalePct floors the horizontal scaling applied to oversized
	// replacement text. At the floor the text may run into surrounding
	// whitespace; neighbouring text is never overwritten.
	MinScalePct int
}

func DefaultConfig() Config {
	return Config{
		HighlightColor: Yellow,
		MinScalePct:    constants.MinHorizontalScale,
	}
}

type Mutator struct {
	cfg Config
	log *slog.Logger
}

func NewMutator(cfg Config, log *slog.Logger) *Mutator {
	zero := extract.RGB{}
	if cfg.HighlightColor == zero {
		cfg.HighlightColor = Yellow
	}
	if cfg.MinScalePct <= 0 || cfg.MinScalePct > 100 {
		cfg.MinScalePct = constants.MinHorizontalScale
	}
	if log == nil {
		log = slog.Default()
	}
	return &Mutator{cfg: cfg, log: log}
}

// Skipped records one located edit the mutator could not apply. Skips are
// per edit and never abort the batch.
type Skipped struct {
	Edit   llm.EditRequest
	Page   int
	Reason string
}

// Result summarizes one Apply run.
type Result struct {
	Applied int
	Skipped []Skipped
}
