package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/backlog-forge/internal/schema"
)

// Sheet names in the exported workbook.
const (
	SheetStories     = "Stories"
	SheetRisks       = "Risks"
	SheetAssumptions = "Assumptions"
	SheetQuestions   = "Questions"
)

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func (w *sheetWriter) write(values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, w.row)
		_ = w.f.SetCellValue(w.sheet, cell, v)
	}
	w.row++
}

// XLSX returns a workbook with one sheet per backlog section.
func XLSX(b *schema.Backlog) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// The default sheet is renamed so the workbook opens on Stories.
	if err := f.SetSheetName(f.GetSheetName(0), SheetStories); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	for _, name := range []string{SheetRisks, SheetAssumptions, SheetQuestions} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsx sheet: %w", err)
		}
	}

	stories := &sheetWriter{f: f, sheet: SheetStories, row: 1}
	stories.write("Epic ID", "Epic", "Story ID", "Title", "User Story", "Description", "Acceptance Criteria", "Tags")
	for _, e := range b.Epics {
		for _, s := range e.Stories {
			stories.write(e.ID, e.Title, s.ID, s.Title, s.ShortDescription, s.FullDescription,
				strings.Join(s.AcceptanceCriteria, "\n"), strings.Join(s.Tags, ", "))
		}
	}
	_ = f.SetColWidth(SheetStories, "A", "A", 12)
	_ = f.SetColWidth(SheetStories, "B", "B", 28)
	_ = f.SetColWidth(SheetStories, "C", "C", 14)
	_ = f.SetColWidth(SheetStories, "D", "D", 32)
	_ = f.SetColWidth(SheetStories, "E", "G", 60)

	risks := &sheetWriter{f: f, sheet: SheetRisks, row: 1}
	risks.write("ID", "Description", "Impact", "Probability", "Mitigation")
	for _, r := range b.Risks {
		risks.write(r.ID, r.Description, r.Impact, r.Probability, r.Mitigation)
	}
	_ = f.SetColWidth(SheetRisks, "B", "B", 60)
	_ = f.SetColWidth(SheetRisks, "E", "E", 60)

	assumptions := &sheetWriter{f: f, sheet: SheetAssumptions, row: 1}
	assumptions.write("ID", "Description", "Reason")
	for _, a := range b.Assumptions {
		assumptions.write(a.ID, a.Description, a.Reason)
	}
	_ = f.SetColWidth(SheetAssumptions, "B", "C", 60)

	questions := &sheetWriter{f: f, sheet: SheetQuestions, row: 1}
	questions.write("ID", "Category", "Question", "Type", "Origin")
	for _, c := range b.OpenQuestions.Categories {
		for _, q := range c.Questions {
			questions.write(q.ID, c.Category, q.Question, q.Type, q.Origin)
		}
	}
	for _, u := range b.OpenQuestions.Unclassified {
		questions.write("", "Unclassified", fmt.Sprint(u), "", "")
	}
	_ = f.SetColWidth(SheetQuestions, "C", "C", 60)

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
