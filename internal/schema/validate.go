package schema

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

const schemaURL = "backlog.schema.json"

var missingPropRe = regexp.MustCompile(`'([^']*)'`)

// Validator checks untyped values against the backlog schema. It is safe for
// concurrent use.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the backlog schema.
func NewValidator() (*Validator, error) {
	b, err := json.Marshal(BuildBacklogJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Validate normalizes v, checks it against the schema and decodes it into a
// Backlog. Every violation is reported in a single SchemaViolation error.
func (v *Validator) Validate(value any) (*Backlog, error) {
	value = Normalize(value)
	if err := v.schema.Validate(value); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("validate: %w", err)
		}
		return nil, common.SchemaViolationError(Issues(ve))
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal validated value: %w", err)
	}
	var out Backlog
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode backlog: %w", err)
	}
	return &out, nil
}

// ValidateJSON parses data and validates the result.
func (v *Validator) ValidateJSON(data []byte) (*Backlog, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, common.MalformedInputError("backlog JSON", err)
	}
	return v.Validate(value)
}

// located is an issue plus the pointer tokens it was rendered from.
type located struct {
	tokens []string
	issue  common.Issue
}

// Issues flattens the leaf causes of ve into sorted, de-duplicated issues.
// Array indexes sort numerically, so epics[2] comes before epics[10].
func Issues(ve *jsonschema.ValidationError) []common.Issue {
	var leaves []located
	collectLeaves(ve, &leaves)

	sort.SliceStable(leaves, func(i, j int) bool {
		if c := compareTokens(leaves[i].tokens, leaves[j].tokens); c != 0 {
			return c < 0
		}
		return leaves[i].issue.Message < leaves[j].issue.Message
	})
	out := make([]common.Issue, 0, len(leaves))
	for i, l := range leaves {
		if i > 0 && l.issue == leaves[i-1].issue {
			continue
		}
		out = append(out, l.issue)
	}
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]located) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			collectLeaves(c, out)
		}
		return
	}
	tokens := pointerTokens(ve.InstanceLocation)
	if strings.HasPrefix(ve.Message, "missing propert") {
		for _, m := range missingPropRe.FindAllStringSubmatch(ve.Message, -1) {
			t := append(append([]string(nil), tokens...), m[1])
			*out = append(*out, located{tokens: t, issue: common.Issue{Path: joinPath(t), Message: "Required"}})
		}
		return
	}
	*out = append(*out, located{tokens: tokens, issue: common.Issue{Path: joinPath(tokens), Message: ve.Message}})
}

// compareTokens orders pointer token lists element by element. Numeric tokens
// compare as numbers and sort before names; a prefix sorts first.
func compareTokens(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		an, aErr := strconv.Atoi(a[i])
		bn, bErr := strconv.Atoi(b[i])
		switch {
		case aErr == nil && bErr == nil:
			if an != bn {
				return cmp.Compare(an, bn)
			}
		case aErr == nil:
			return -1
		case bErr == nil:
			return 1
		default:
			if c := strings.Compare(a[i], b[i]); c != 0 {
				return c
			}
		}
	}
	return cmp.Compare(len(a), len(b))
}

// pointerTokens splits a JSON pointer into unescaped reference tokens.
func pointerTokens(ptr string) []string {
	if ptr == "" || ptr == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, p := range parts {
		if u, err := url.PathUnescape(p); err == nil {
			p = u
		}
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return parts
}

// joinPath renders tokens as epics[0].stories[1].id; no tokens is "(root)".
func joinPath(tokens []string) string {
	if len(tokens) == 0 {
		return "(root)"
	}
	var b strings.Builder
	for _, tok := range tokens {
		if _, err := strconv.Atoi(tok); err == nil && b.Len() > 0 {
			b.WriteString("[" + tok + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(tok)
	}
	return b.String()
}
