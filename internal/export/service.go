package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/schema"
)

// Supported export formats.
const (
	FormatMarkdown = "markdown"
	FormatXLSX     = "xlsx"
	FormatJSON     = "json"
)

const (
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeJSON     = "application/json"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Document is a rendered export ready to be written or served.
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Service renders validated backlogs into downloadable documents.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Render produces b in the requested format. An empty format means markdown.
func (s *Service) Render(_ context.Context, format string, b *schema.Backlog) (Document, error) {
	start := time.Now()
	base := filename(b.ProjectSummary.Title)

	var (
		doc Document
		err error
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatMarkdown, "md":
		doc = Document{Data: []byte(Markdown(b)), ContentType: contentTypeMarkdown, Filename: base + ".md"}
	case FormatXLSX:
		var data []byte
		if data, err = XLSX(b); err == nil {
			doc = Document{Data: data, ContentType: contentTypeXLSX, Filename: base + ".xlsx"}
		}
	case FormatJSON:
		var data []byte
		if data, err = json.MarshalIndent(b, "", "  "); err == nil {
			doc = Document{Data: data, ContentType: contentTypeJSON, Filename: base + ".json"}
		}
	default:
		return Document{}, common.MalformedInputError(fmt.Sprintf("export format %q", format), common.ErrInvalidInput)
	}
	if err != nil {
		s.logger.Error("export.render.failed", "format", format, "error", err)
		return Document{}, err
	}

	s.logger.Info("export.render.ok",
		"format", format,
		"stories", b.StoryCount(),
		"bytes", len(doc.Data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func filename(title string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return "backlog"
	}
	return truncate(slug, 60)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return strings.TrimRight(s[:n], "-")
}
