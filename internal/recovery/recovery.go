// Package recovery turns raw model text into a parsed JSON value. Repairs are
// attempted in a fixed order and the first successful parse wins.
package recovery

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

// Strategy names the step that produced the value.
type Strategy string

const (
	StrategyDirect     Strategy = "direct"
	StrategyBraces     Strategy = "brace_extraction"
	StrategyTruncation Strategy = "truncation_repair"
)

// Result is a parsed value plus the strategy that produced it.
type Result struct {
	Value    any
	Strategy Strategy
	Cleaned  string // text after fence stripping
}

// Recover runs the repair ladder: fence strip, direct parse, brace extraction,
// truncation repair. On total failure it returns an UnrecoverableResponse error
// carrying the direct-parse error.
func Recover(raw string) (Result, error) {
	cleaned := StripFences(raw)

	v, directErr := parse(cleaned)
	if directErr == nil {
		return Result{Value: v, Strategy: StrategyDirect, Cleaned: cleaned}, nil
	}

	if sub, ok := braceSpan(cleaned); ok {
		if v, err := parse(sub); err == nil {
			return Result{Value: v, Strategy: StrategyBraces, Cleaned: cleaned}, nil
		}
	}

	if v, ok := repairTruncation(cleaned, directErr); ok {
		return Result{Value: v, Strategy: StrategyTruncation, Cleaned: cleaned}, nil
	}
	// Leading prose puts the direct-parse offset before any element, so the
	// repair is retried on the text from the first '{'.
	if start := strings.IndexByte(cleaned, '{'); start > 0 {
		tail := cleaned[start:]
		if _, err := parse(tail); err != nil {
			if v, ok := repairTruncation(tail, err); ok {
				return Result{Value: v, Strategy: StrategyTruncation, Cleaned: cleaned}, nil
			}
		}
	}

	return Result{Cleaned: cleaned}, common.UnrecoverableResponseError(directErr)
}

// StripFences trims whitespace and removes a surrounding ``` or ```json fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parse(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// braceSpan returns s from the first '{' to the last '}' inclusive.
func braceSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// repairTruncation cuts the text at the last complete element ("},") before the
// parse error offset and closes the document with "]}". The heuristic assumes a
// top-level object holding an array; anything that does not parse to an object
// is rejected.
func repairTruncation(s string, parseErr error) (any, bool) {
	offset, ok := errorOffset(parseErr)
	if !ok {
		return nil, false
	}
	if offset > int64(len(s)) {
		offset = int64(len(s))
	}
	head := s[:offset]
	cut := strings.LastIndex(head, "},")
	if cut < 0 {
		return nil, false
	}
	v, err := parse(head[:cut+1] + "]}")
	if err != nil {
		return nil, false
	}
	if _, isObject := v.(map[string]any); !isObject {
		return nil, false
	}
	return v, true
}

// errorOffset extracts the byte offset of a JSON syntax error. Input that ends
// early reports the full length.
func errorOffset(err error) (int64, bool) {
	var se *json.SyntaxError
	if errors.As(err, &se) && se.Offset > 0 {
		return se.Offset, true
	}
	return 0, false
}
