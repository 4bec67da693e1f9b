package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/schema"
)

func sampleBacklog() *schema.Backlog {
	return &schema.Backlog{
		ProjectSummary: schema.ProjectSummary{
			Title:       "Mobile App Feature Brainstorm",
			Description: "Bring the core app to phones.",
			Objectives:  []string{"Offline first"},
		},
		Epics: []schema.Epic{{
			ID: "EPIC-001", Title: "Offline", Description: "Work without network",
			Stories: []schema.Story{
				{
					ID: "STORY-001-01", Title: "Offline mode",
					ShortDescription:   "As a commuter, I want to edit offline, so that I keep working on the train",
					AcceptanceCriteria: []string{"Edits are queued", "Queue syncs on reconnect"},
					Tags:               []string{"offline", "sync"},
				},
				{
					ID: "STORY-001-02", Title: "Sync status",
					ShortDescription:   "Show sync status",
					AcceptanceCriteria: []string{"Icon reflects state"},
				},
			},
		}},
		Risks:       []schema.Risk{{ID: "RISK-001", Description: "Merge conflicts", Impact: "high", Probability: "medium", Mitigation: "Last write wins"}},
		Assumptions: []schema.Assumption{{ID: "ASSUMPTION-001", Description: "Devices have storage", Reason: "Modern phones"}},
		OpenQuestions: schema.OpenQuestions{
			Unclassified: []any{"Which platforms first?"},
			Categories: []schema.QuestionCategory{{
				Category:  "Technical",
				Questions: []schema.Question{{ID: "Q-001", Question: "Which sync engine?", Type: "technical", Origin: "Must Have"}},
			}},
		},
	}
}

func TestParseUserStory(t *testing.T) {
	tests := []struct {
		in   string
		want userStory
	}{
		{"As a user, I want to search, so that I find features", userStory{"user", "to search", "I find features"}},
		{"As an admin I want exports for audits", userStory{"admin", "exports", "audits"}},
		{"Improve search", userStory{"a user", "Improve search", "improved experience"}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, parseUserStory(tc.in))
		})
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleBacklog())

	assert.True(t, strings.HasPrefix(md, "# Feature: Mobile App Feature Brainstorm\n\n## Problem Statement\n\nBring the core app to phones.\n\n- Offline first\n"))
	assert.Contains(t, md, "### US-1: Offline mode\n\n**As** commuter **I want** to edit offline **for** I keep working on the train\n\n**Acceptance Criteria:**\n- [ ] Edits are queued\n- [ ] Queue syncs on reconnect\n")
	assert.Contains(t, md, "### US-2: Sync status")
	assert.Contains(t, md, "**As** a user **I want** Show sync status **for** improved experience")
	assert.Contains(t, md, "## Risks & Assumptions\n\n- **Risk:** Merge conflicts\n- **Assumption:** Devices have storage\n")
	assert.Contains(t, md, "## Open Questions\n\n### Technical\n\n- Which sync engine?\n")
	assert.Contains(t, md, "- Which platforms first?")
}

func TestMarkdown_NoQuestionsSection(t *testing.T) {
	b := sampleBacklog()
	b.OpenQuestions = schema.OpenQuestions{Unclassified: []any{}}
	assert.NotContains(t, Markdown(b), "## Open Questions")
}

func TestSingleStory(t *testing.T) {
	out := SingleStory(sampleBacklog().Epics[0].Stories[1], 7)
	assert.Equal(t, "### US-7: Sync status\n\n**As** a user **I want** Show sync status **for** improved experience\n\n**Acceptance Criteria:**\n- [ ] Icon reflects state", out)
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sampleBacklog())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetStories, SheetRisks, SheetAssumptions, SheetQuestions}, f.GetSheetList())

	rows, err := f.GetRows(SheetStories)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Story ID", rows[0][2])
	assert.Equal(t, "STORY-001-01", rows[1][2])
	assert.Equal(t, "Edits are queued\nQueue syncs on reconnect", rows[1][6])

	rows, err = f.GetRows(SheetRisks)
	require.NoError(t, err)
	assert.Equal(t, []string{"RISK-001", "Merge conflicts", "high", "medium", "Last write wins"}, rows[1])

	rows, err = f.GetRows(SheetQuestions)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Technical", rows[1][1])
	assert.Equal(t, "Which platforms first?", rows[2][2])
}

func TestService_Render(t *testing.T) {
	s := NewService(nil)
	ctx := context.Background()

	doc, err := s.Render(ctx, "", sampleBacklog())
	require.NoError(t, err)
	assert.Equal(t, "mobile-app-feature-brainstorm.md", doc.Filename)
	assert.Equal(t, contentTypeMarkdown, doc.ContentType)

	doc, err = s.Render(ctx, FormatXLSX, sampleBacklog())
	require.NoError(t, err)
	assert.Equal(t, "mobile-app-feature-brainstorm.xlsx", doc.Filename)
	assert.NotEmpty(t, doc.Data)

	doc, err = s.Render(ctx, FormatJSON, sampleBacklog())
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), `"EPIC-001"`)

	_, err = s.Render(ctx, "pdf", sampleBacklog())
	assert.True(t, common.IsKind(err, common.KindMalformedInput))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "backlog", filename("  !!! "))
	assert.Equal(t, "q1-discovery", filename("Q1 Discovery"))
}
