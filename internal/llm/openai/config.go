package openai

import (
	"log/slog"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/backlog-forge/internal/llm"
)

// Config for the OpenAI-compatible client.
type Config struct {
	APIKey      string        // checked lazily on each call
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	MaxTokens   int           // completion cap
	Timeout     time.Duration // http client timeout
	CountTokens bool          // estimate prompt tokens with tiktoken
}

type Client struct {
	cfg        Config
	api        *goopenai.Client
	httpClient *http.Client
	tokens     *llm.TokenCounter
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	c := &Client{cfg: cfg, httpClient: httpClient, log: logger}
	if cfg.APIKey != "" {
		c.api = newAPI(cfg, httpClient)
	}
	if cfg.CountTokens {
		c.tokens = llm.NewTokenCounter(cfg.Model)
	}
	return c
}

func newAPI(cfg Config, httpClient *http.Client) *goopenai.Client {
	oc := goopenai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = httpClient
	return goopenai.NewClientWithConfig(oc)
}
