package gemini

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/joseph-ayodele/pdf-markup/constants"
	"github.com/joseph-ayodele/pdf-markup/internal/common"
)

// Config for the Gemini client.
type Config struct {
	APIKey      string        // if empty, falls back to env GEMINI_API_KEY
	Models      []string      // tried in order; first success wins
	Temperature float32       // 0..2; zero means provider default
	Timeout     time.Duration // budget for one Propose call across all models
}

// generateFunc issues one model call and returns the reply text. Split out so
// tests can stand in for the wire.
type generateFunc func(ctx context.Context, model, prompt string) (string, error)

type Client struct {
	cfg      Config
	logger   *slog.Logger
	generate generateFunc
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if len(cfg.Models) == 0 {
		cfg.Models = constants.DefaultModels
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if !common.ValidAPIKey(cfg.APIKey) {
		return nil, common.ErrNoAPIKey
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, &common.OracleError{Message: "client init failed", Cause: err}
	}

	var genCfg *genai.GenerateContentConfig
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		genCfg = &genai.GenerateContentConfig{Temperature: &t}
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		generate: func(ctx context.Context, model, prompt string) (string, error) {
			res, err := gc.Models.GenerateContent(ctx, model, []*genai.Content{
				genai.NewContentFromText(prompt, genai.RoleUser),
			}, genCfg)
			if err != nil {
				return "", err
			}
			return res.Text(), nil
		},
	}, nil
}
