package extract

import (
	"context"

	"github.com/joseph-ayodele/backlog-forge/constants"
)

// File is an uploaded payload.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Input carries exactly one of File or BoardRef.
type Input struct {
	File     *File
	BoardRef string // board URL or bare board id
}

// ContentDocument is the single plain-text document produced per run.
type ContentDocument struct {
	Text       string
	SourceKind constants.SourceKind
	WordCount  int
	Title      string // board name or file name
	Source     string // board id or file name
}

// TextRecognizer turns image and PDF payloads into text.
type TextRecognizer interface {
	Recognize(ctx context.Context, kind constants.SourceKind, f File) (string, error)
}
