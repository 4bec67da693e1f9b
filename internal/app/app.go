// Package app wires configuration into a ready pipeline for the daemon and
// the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/joseph-ayodele/backlog-forge/internal/board"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/export"
	"github.com/joseph-ayodele/backlog-forge/internal/extract"
	"github.com/joseph-ayodele/backlog-forge/internal/llm"
	"github.com/joseph-ayodele/backlog-forge/internal/llm/openai"
	"github.com/joseph-ayodele/backlog-forge/internal/ocr"
	"github.com/joseph-ayodele/backlog-forge/internal/pipeline"
	"github.com/joseph-ayodele/backlog-forge/internal/prompt"
	repo "github.com/joseph-ayodele/backlog-forge/internal/repository"
	"github.com/joseph-ayodele/backlog-forge/internal/schema"
	"github.com/joseph-ayodele/backlog-forge/internal/server"
)

// App holds every long-lived component built from one Config.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Boards    board.Source
	BoardMode string
	Generator llm.Generator
	Validator *schema.Validator
	Processor *pipeline.Processor
	Exporter  *export.Service
	DB        *repo.DB
	Runs      repo.RunRepository

	tracer *sdktrace.TracerProvider
}

// Options override parts of the wiring, mainly for tests.
type Options struct {
	// Generator replaces the OpenAI client.
	Generator llm.Generator
	// SkipStore disables the run store even when STORE_DSN is set.
	SkipStore bool
}

// New builds the pipeline described by cfg.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger}

	if cfg.Server.OTelStdout {
		tp, err := initTracer()
		if err != nil {
			return nil, err
		}
		a.tracer = tp
	}

	a.Boards, a.BoardMode = newBoardSource(cfg.Board, logger)

	a.Generator = opts.Generator
	if a.Generator == nil {
		a.Generator = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
			CountTokens: cfg.LLM.CountTokens,
		}, logger)
	}

	cat, err := prompt.Load(cfg.Prompt.Dir)
	if err != nil {
		return nil, err
	}
	logger.Info("prompts loaded", "dir", cfg.Prompt.Dir, "roles", strings.Join(cat.Roles(), ","))

	var recognizer extract.TextRecognizer
	switch cfg.OCR.Backend {
	case common.OCRBackendLocal:
		recognizer = extract.NewLocalRecognizer(ocr.NewExtractor(ocr.Config{
			Pdftotext:     cfg.OCR.Pdftotext,
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.TesseractLang,
		}, logger), logger)
	default:
		recognizer = extract.NewVisionRecognizer(a.Generator, prompt.OCRInstructions(cat), logger)
	}

	a.Validator, err = schema.NewValidator()
	if err != nil {
		return nil, err
	}
	a.Exporter = export.NewService(logger)

	popts := []pipeline.Option{pipeline.WithArtifactDir(cfg.Store.DebugArtifactDir)}
	if cfg.Store.DSN != "" && !opts.SkipStore {
		a.DB, err = server.ConnectDB(ctx, cfg.Store, logger)
		if err != nil {
			return nil, fmt.Errorf("run store: %w", err)
		}
		a.Runs = repo.NewRunRepository(a.DB, logger)
		popts = append(popts, pipeline.WithRunStore(a.Runs))
	}

	a.Processor = pipeline.NewProcessor(
		logger,
		extract.NewExtractor(a.Boards, recognizer, logger),
		prompt.NewBuilder(cat),
		a.Generator,
		a.Validator,
		popts...,
	)
	return a, nil
}

// Server returns the HTTP boundary over this App.
func (a *App) Server() *server.Server {
	return server.New(server.Deps{
		Processor:      a.Processor,
		Boards:         a.Boards,
		Exporter:       a.Exporter,
		Validator:      a.Validator,
		Runs:           a.Runs,
		DB:             a.DB,
		BoardMode:      a.BoardMode,
		MaxUploadBytes: a.Config.MaxUploadBytes(),
		Logger:         a.Logger,
	})
}

// Close flushes traces and closes the run store.
func (a *App) Close(ctx context.Context) {
	server.CloseDB(a.DB, a.Logger)
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.Logger.Warn("tracer shutdown failed", "error", err)
		}
	}
}

func newBoardSource(cfg common.BoardConfig, logger *slog.Logger) (board.Source, string) {
	if !cfg.MiroEnabled {
		logger.Info("board source ready", "mode", server.ModeMock)
		return board.NewMockSource(cfg.PageSize), server.ModeMock
	}
	logger.Info("board source ready", "mode", server.ModeMiro, "base_url", cfg.BaseURL)
	return board.NewMiroClient(board.MiroConfig{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		PageSize: cfg.PageSize,
		Timeout:  cfg.Timeout,
	}, logger), server.ModeMiro
}

// initTracer installs a stdout span exporter as the global tracer provider.
func initTracer() (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp, nil
}

// NewLogger builds the process logger. JSON is used for the daemon, text for
// the CLI.
func NewLogger(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
