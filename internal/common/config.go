package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/pdf-markup/constants"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	History HistoryConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr   string
	LogLevel   string
	LogFormat  string
	SessionTTL time.Duration
}

// LLMConfig holds model-related configuration
type LLMConfig struct {
	APIKey      string
	Models      []string
	Temperature float32
	Timeout     time.Duration
}

// HistoryConfig holds edit-history storage configuration. DSN selects
// Postgres when set; otherwise SQLitePath is used.
type HistoryConfig struct {
	DSN        string
	SQLitePath string
}

// fileConfig mirrors the optional YAML config file. Every field is layered
// under the environment: env vars win when set.
type fileConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
	Gemini     struct {
		APIKey      string   `yaml:"api_key"`
		Models      []string `yaml:"models"`
		Temperature *float32 `yaml:"temperature"`
		Timeout     string   `yaml:"timeout"`
	} `yaml:"gemini"`
	History struct {
		DBURL      string `yaml:"db_url"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"history"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
}

// LoadConfig loads configuration from the optional YAML file named by
// PDFMARKUP_CONFIG, then overrides from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			HTTPAddr:   ":8080",
			LogLevel:   "info",
			LogFormat:  "json",
			SessionTTL: 30 * time.Minute,
		},
		LLM: LLMConfig{
			Models:      append([]string(nil), constants.DefaultModels...),
			Temperature: 0.2,
			Timeout:     45 * time.Second,
		},
		History: HistoryConfig{
			SQLitePath: "data/pdfmarkup.db",
		},
	}

	if path := os.Getenv("PDFMARKUP_CONFIG"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, WrapError(err, "loading config file")
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if fc.ListenAddr != "" {
		cfg.Server.HTTPAddr = fc.ListenAddr
	}
	if fc.LogLevel != "" {
		cfg.Server.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.Server.LogFormat = fc.LogFormat
	}
	if fc.Gemini.APIKey != "" {
		cfg.LLM.APIKey = fc.Gemini.APIKey
	}
	if len(fc.Gemini.Models) > 0 {
		cfg.LLM.Models = fc.Gemini.Models
	}
	if fc.Gemini.Temperature != nil {
		cfg.LLM.Temperature = *fc.Gemini.Temperature
	}
	if fc.Gemini.Timeout != "" {
		d, err := time.ParseDuration(fc.Gemini.Timeout)
		if err != nil {
			return fmt.Errorf("gemini.timeout: %w", err)
		}
		cfg.LLM.Timeout = d
	}
	if fc.History.DBURL != "" {
		cfg.History.DSN = fc.History.DBURL
	}
	if fc.History.SQLitePath != "" {
		cfg.History.SQLitePath = fc.History.SQLitePath
	}
	if fc.Session.TTL != "" {
		d, err := time.ParseDuration(fc.Session.TTL)
		if err != nil {
			return fmt.Errorf("session.ttl: %w", err)
		}
		cfg.Server.SessionTTL = d
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.HTTPAddr = getEnv("HTTP_ADDR", cfg.Server.HTTPAddr)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", cfg.Server.LogLevel)
	cfg.Server.LogFormat = getEnv("LOG_FORMAT", cfg.Server.LogFormat)
	cfg.Server.SessionTTL = getEnvAsDuration("SESSION_TTL", cfg.Server.SessionTTL)

	cfg.LLM.APIKey = getEnv("GEMINI_API_KEY", cfg.LLM.APIKey)
	if models := os.Getenv("GEMINI_MODELS"); models != "" {
		cfg.LLM.Models = splitModels(models)
	}
	cfg.LLM.Temperature = getEnvAsFloat32("GEMINI_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.Timeout = getEnvAsDuration("GEMINI_TIMEOUT", cfg.LLM.Timeout)

	cfg.History.DSN = getEnv("HISTORY_DB_URL", cfg.History.DSN)
	cfg.History.SQLitePath = getEnv("HISTORY_SQLITE_PATH", cfg.History.SQLitePath)
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

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if len(c.LLM.Models) == 0 {
		return NewAppError("CONFIG_ERROR", "at least one model is required", ErrInvalidInput)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return NewAppError("CONFIG_ERROR", "temperature must be in [0,2]", ErrInvalidInput)
	}
	if c.History.DSN == "" && c.History.SQLitePath == "" {
		return NewAppError("CONFIG_ERROR", "history storage is required", ErrInvalidInput)
	}
	return nil
}
