package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Board    BoardConfig
	LLM      LLMConfig
	OCR      OCRConfig
	Prompt   PromptConfig
	Store    StoreConfig
	Pipeline PipelineConfig
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ServerConfig holds HTTP and gRPC listener configuration
type ServerConfig struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr    string `envconfig:"GRPC_ADDR" default:":9090"`
	MaxUploadMB int    `envconfig:"MAX_UPLOAD_MB" default:"10"`
	OTelStdout  bool   `envconfig:"OTEL_STDOUT" default:"false"`
}

// BoardConfig selects and configures the board source
type BoardConfig struct {
	MiroEnabled bool          `envconfig:"MIRO_ENABLED" default:"false"`
	APIKey      string        `envconfig:"MIRO_API_KEY"`
	BaseURL     string        `envconfig:"MIRO_BASE_URL" default:"https://api.miro.com/v2"`
	PageSize    int           `envconfig:"MIRO_PAGE_SIZE" default:"50"`
	Timeout     time.Duration `envconfig:"MIRO_TIMEOUT" default:"30s"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey      string        `envconfig:"LLM_API_KEY"`
	BaseURL     string        `envconfig:"LLM_BASE_URL"`
	Model       string        `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	Temperature float32       `envconfig:"LLM_TEMPERATURE" default:"0.2"`
	MaxTokens   int           `envconfig:"LLM_MAX_TOKENS" default:"8192"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`
	CountTokens bool          `envconfig:"LLM_COUNT_TOKENS" default:"false"`
}

// OCRConfig selects how image and PDF payloads become text
type OCRConfig struct {
	Backend       string `envconfig:"OCR_BACKEND" default:"vision"`
	Tesseract     string `envconfig:"TESSERACT_BIN" default:"tesseract"`
	Pdftotext     string `envconfig:"PDFTOTEXT_BIN" default:"pdftotext"`
	TesseractLang string `envconfig:"TESSERACT_LANG" default:"eng"`
}

// PromptConfig points at an optional on-disk template directory
type PromptConfig struct {
	Dir string `envconfig:"PROMPTS_DIR"`
}

// StoreConfig configures the run store and debug artifacts
type StoreConfig struct {
	DSN              string        `envconfig:"STORE_DSN"`
	MaxConns         int32         `envconfig:"STORE_MAX_CONNS" default:"10"`
	DialTimeout      time.Duration `envconfig:"STORE_DIAL_TIMEOUT" default:"3s"`
	DebugArtifactDir string        `envconfig:"DEBUG_ARTIFACT_DIR"`
}

// PipelineConfig holds batch processing knobs
type PipelineConfig struct {
	BatchWorkers int           `envconfig:"BATCH_WORKERS" default:"4"`
	BatchTimeout time.Duration `envconfig:"BATCH_TIMEOUT" default:"5m"`
}

// OCR backends
const (
	OCRBackendVision = "vision"
	OCRBackendLocal  = "local"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "failed to load configuration", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.OCR.Backend = strings.ToLower(strings.TrimSpace(cfg.OCR.Backend))
	return &cfg, nil
}

// Validate validates the loaded configuration. Credentials are checked lazily
// by the clients that need them, not here.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadMB <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	if c.LLM.MaxTokens <= 0 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_TOKENS must be positive", ErrInvalidInput)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("LLM_TEMPERATURE out of range: %v", c.LLM.Temperature), ErrInvalidInput)
	}
	if c.Board.PageSize <= 0 || c.Board.PageSize > 50 {
		return NewAppError("CONFIG_ERROR", "MIRO_PAGE_SIZE must be between 1 and 50", ErrInvalidInput)
	}
	switch c.OCR.Backend {
	case OCRBackendVision, OCRBackendLocal:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown OCR_BACKEND %q", c.OCR.Backend), ErrInvalidInput)
	}
	if c.Pipeline.BatchWorkers <= 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) * 1024 * 1024
}
