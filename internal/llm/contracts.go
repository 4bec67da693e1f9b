package llm

import (
	"context"
	"errors"
)

// Attachment is a single binary payload sent alongside the prompt.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Generator is the interface the pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string, att *Attachment) (string, error)
}

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, att *Attachment) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, att *Attachment) (string, error) {
	return f(ctx, prompt, att)
}
