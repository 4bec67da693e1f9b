package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/backlog-forge/constants"
)

type Config struct {
	Pdftotext     string // binary name or absolute path; if empty -> "pdftotext"
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TempDir       string // where uploaded payloads are spooled; "" = os.TempDir()
}

type Result struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "image-ocr"
	Language string
	Duration time.Duration
}

// Extractor runs the local OCR toolchain over in-memory uploads.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return NewExtractorWithRunner(cfg, execRunner{logger: logger}, logger)
}

// NewExtractorWithRunner is NewExtractor with a custom command runner.
func NewExtractorWithRunner(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Extractor{cfg: cfg, runner: r, logger: logger}
}

// Extract spools data to a temp file and runs the tool matching kind.
func (e *Extractor) Extract(ctx context.Context, kind constants.SourceKind, ext string, data []byte) (Result, error) {
	start := time.Now()
	e.logger.Debug("ocr.extract.start", "kind", kind, "bytes", len(data))

	path, cleanup, err := e.spool(ext, data)
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	var res Result
	switch kind {
	case constants.SourcePDF:
		res, err = e.pdfToText(ctx, path)
	case constants.SourceImage:
		res, err = e.imageToText(ctx, path)
	default:
		return Result{}, fmt.Errorf("ocr: unsupported kind %q", kind)
	}
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.extract.error", "kind", kind, "error", err, "elapsed_ms", res.Duration.Milliseconds())
		return res, err
	}
	e.logger.Info("ocr.extract.ok",
		"kind", kind, "method", res.Method, "pages", res.Pages,
		"chars", len(res.Text), "elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

func (e *Extractor) imageToText(ctx context.Context, path string) (Result, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return Result{
		Text:     Normalize(reBoxNoise.ReplaceAllString(string(out), "")),
		Pages:    1,
		Method:   "image-ocr",
		Language: e.cfg.TesseractLang,
	}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (Result, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{}, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	text := string(out)
	// pdftotext separates pages with a form feed
	pages := 1 + countFormFeeds(text)
	return Result{Text: Normalize(text), Pages: pages, Method: "pdf-text"}, nil
}

func (e *Extractor) spool(ext string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp(e.cfg.TempDir, "bf-ocr-*."+constants.NormalizeExt(ext))
	if err != nil {
		return "", nil, fmt.Errorf("ocr: create temp file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("ocr.spool.cleanup_failed", "path", f.Name(), "error", err)
		}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("ocr: write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("ocr: close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

func countFormFeeds(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\f' {
			n++
		}
	}
	return n
}
