package prompt

import (
	"strings"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/extract"
)

// Placeholder names available to templates.
const (
	VarContent    = "content"
	VarTitle      = "title"
	VarSourceKind = "source_kind"
)

const closingLine = "Now generate the complete product breakdown in JSON format following the schema above."

// Builder renders a ContentDocument into the generation prompt.
type Builder struct {
	cat *Catalogue
}

func NewBuilder(cat *Catalogue) *Builder {
	return &Builder{cat: cat}
}

// Build is pure: the same document always yields the same prompt, and the
// prompt always contains doc.Text verbatim.
func (b *Builder) Build(doc extract.ContentDocument) string {
	tpl := b.cat.TemplateOr(RoleOrchestrator, fallbackOrchestrator)
	vars := map[string]string{
		VarContent:    doc.Text,
		VarTitle:      doc.Title,
		VarSourceKind: string(doc.SourceKind),
	}
	if !strings.Contains(tpl, "{{"+VarContent+"}}") {
		tpl = strings.TrimRight(tpl, "\n") + "\n\n## Project Information\n\n{{" + VarContent + "}}\n\n" + closingLine
	}
	return Render(tpl, vars)
}

// OCRInstructions returns the per-kind OCR instruction for the vision recognizer.
func OCRInstructions(cat *Catalogue) map[constants.SourceKind]string {
	return map[constants.SourceKind]string{
		constants.SourceImage: strings.TrimSpace(cat.TemplateOr(RoleOCRImage, fallbackOCRImage)),
		constants.SourcePDF:   strings.TrimSpace(cat.TemplateOr(RoleOCRPDF, fallbackOCRPDF)),
	}
}

const fallbackOCRImage = "Extract all text from this image. Return only the raw text content, preserving line breaks and structure. Do not add any explanations or formatting."

const fallbackOCRPDF = "Extract all text content from this PDF document. Return only the raw text content, preserving structure and line breaks. Do not add any explanations."

const fallbackOrchestrator = `You are a product discovery team in one: a business analyst, a product manager and a delivery lead.
Read the brainstorming material below and turn it into a complete product breakdown.

## Output Schema
Return a single JSON object with exactly these top-level keys:

{
  "projectSummary": { "title": "...", "description": "...", "objectives": ["..."] },
  "epics": [
    {
      "id": "EPIC-001", "title": "...", "description": "...",
      "stories": [
        {
          "id": "STORY-001-01", "title": "...",
          "shortDescription": "As a [role], I want to [action], so that [benefit]",
          "fullDescription": "...",
          "acceptanceCriteria": ["..."],
          "tags": ["..."]
        }
      ]
    }
  ],
  "risks": [
    { "id": "RISK-001", "description": "...", "impact": "low | medium | high", "probability": "low | medium | high", "mitigation": "..." }
  ],
  "assumptions": [ { "id": "ASSUMPTION-001", "description": "...", "reason": "..." } ],
  "openQuestions": {
    "unclassified": [],
    "categories": [
      {
        "category": "...",
        "questions": [
          { "id": "Q-001", "question": "...", "type": "clarification | missing_detail | dependency | functional | non_functional | technical", "origin": "..." }
        ]
      }
    ]
  }
}

## Rules
- Identifiers use zero padded numbers: EPIC-001, STORY-001-01, RISK-001, ASSUMPTION-001, Q-001.
- impact and probability are lowercase: low, medium or high.
- shortDescription MUST use: "As a [role], I want to [action], so that [benefit]".
- Acceptance criteria are simple, testable statements (NOT Given/When/Then).
- Every field shown above is required. Use empty arrays instead of omitting a list.
- Return ONLY valid JSON. No markdown fences, no commentary.

## Project Information

Source: {{source_kind}} "{{title}}"

{{content}}

` + closingLine + "\n"
