package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/llm"
	"github.com/joseph-ayodele/backlog-forge/internal/ocr"
)

// LocalRecognizer runs tesseract / pdftotext on the host.
type LocalRecognizer struct {
	e   *ocr.Extractor
	log *slog.Logger
}

func NewLocalRecognizer(e *ocr.Extractor, logger *slog.Logger) *LocalRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalRecognizer{e: e, log: logger}
}

func (a *LocalRecognizer) Recognize(ctx context.Context, kind constants.SourceKind, f File) (string, error) {
	r, err := a.e.Extract(ctx, kind, filepath.Ext(f.Name), f.Data)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", kind, err)
	}
	return r.Text, nil
}

// VisionRecognizer sends the payload as an attachment to a vision-capable model
// together with an OCR instruction per kind.
type VisionRecognizer struct {
	gen          llm.Generator
	instructions map[constants.SourceKind]string
	log          *slog.Logger
}

func NewVisionRecognizer(gen llm.Generator, instructions map[constants.SourceKind]string, logger *slog.Logger) *VisionRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisionRecognizer{gen: gen, instructions: instructions, log: logger}
}

func (v *VisionRecognizer) Recognize(ctx context.Context, kind constants.SourceKind, f File) (string, error) {
	instruction, ok := v.instructions[kind]
	if !ok || strings.TrimSpace(instruction) == "" {
		return "", fmt.Errorf("no OCR instruction configured for %s", kind)
	}
	mt := f.MIMEType
	if k, ok := constants.KindFromMIME(mt); !ok || k != kind {
		mt = constants.DefaultMIME(kind, filepath.Ext(f.Name))
	}

	text, err := v.gen.Generate(ctx, instruction, &llm.Attachment{
		Name:     f.Name,
		MIMEType: mt,
		Data:     f.Data,
	})
	if err != nil {
		v.log.Error("extract.vision.error", "kind", kind, "file", f.Name, "error", err)
		return "", fmt.Errorf("failed to extract text from %s: %w", kind, err)
	}
	return strings.TrimSpace(text), nil
}
