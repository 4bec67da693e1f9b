package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/board"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

// Extractor normalizes files and board references into a ContentDocument.
type Extractor struct {
	source     board.Source
	recognizer TextRecognizer
	log        *slog.Logger
}

func NewExtractor(source board.Source, recognizer TextRecognizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{source: source, recognizer: recognizer, log: logger}
}

// Extract dispatches on the populated field of in.
func (e *Extractor) Extract(ctx context.Context, in Input) (ContentDocument, error) {
	hasFile := in.File != nil
	hasRef := strings.TrimSpace(in.BoardRef) != ""
	switch {
	case hasFile && hasRef:
		return ContentDocument{}, common.MalformedInputError("input: provide either a file or a board reference, not both", common.ErrInvalidInput)
	case hasFile:
		return e.ExtractFile(ctx, *in.File)
	case hasRef:
		id, err := ParseBoardRef(in.BoardRef)
		if err != nil {
			return ContentDocument{}, err
		}
		return e.ExtractBoard(ctx, id)
	}
	return ContentDocument{}, common.MalformedInputError("input: no file or board reference provided", common.ErrInvalidInput)
}

// ExtractFile resolves the kind of f and extracts its text.
func (e *Extractor) ExtractFile(ctx context.Context, f File) (ContentDocument, error) {
	kind, err := DetectKind(f.MIMEType, f.Name)
	if err != nil {
		e.log.Warn("extract.file.unsupported", "file", f.Name, "mime", f.MIMEType)
		return ContentDocument{}, err
	}

	var text string
	switch kind {
	case constants.SourceImage, constants.SourcePDF:
		if e.recognizer == nil {
			return ContentDocument{}, errors.New("no text recognizer configured")
		}
		text, err = e.recognizer.Recognize(ctx, kind, f)
	case constants.SourceJSON:
		text, err = reindentJSON(f.Data)
	case constants.SourceText:
		if !utf8.Valid(f.Data) {
			err = common.MalformedInputError("text file: not valid UTF-8", nil)
		}
		text = string(f.Data)
	}
	if err != nil {
		return ContentDocument{}, err
	}

	doc := ContentDocument{
		Text:       text,
		SourceKind: kind,
		WordCount:  CountWords(text),
		Title:      f.Name,
		Source:     f.Name,
	}
	e.log.Info("extract.file.ok",
		"file", f.Name, "kind", kind, "bytes", len(f.Data), "words", doc.WordCount)
	return doc, nil
}

// reindentJSON parses the payload and re-serializes it with two-space indentation.
func reindentJSON(data []byte) (string, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", common.MalformedInputError("JSON file", err)
	}
	if dec.More() {
		return "", common.MalformedInputError("JSON file", errors.New("unexpected data after top-level value"))
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", common.MalformedInputError("JSON file", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
