package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/board"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

// maxBoardPages bounds pagination against a source that never clears its cursor.
const maxBoardPages = 1000

type outlineElement struct {
	kind string
	text string
}

// ExtractBoard fetches a board and renders its content-bearing items as an outline.
func (e *Extractor) ExtractBoard(ctx context.Context, boardID string) (ContentDocument, error) {
	meta, err := e.source.GetBoardMeta(ctx, boardID)
	if err != nil {
		return ContentDocument{}, err
	}

	var elements []outlineElement
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxBoardPages {
			return ContentDocument{}, fmt.Errorf("board %s: pagination did not terminate after %d pages", boardID, maxBoardPages)
		}
		p, err := e.source.GetBoardItems(ctx, boardID, cursor)
		if err != nil {
			return ContentDocument{}, err
		}
		elements = append(elements, contentElements(p.Items)...)
		if p.NextCursor == "" {
			break
		}
		cursor = p.NextCursor
	}

	if len(elements) == 0 {
		return ContentDocument{}, common.EmptyBoardError(boardID)
	}

	text := outline(meta.Name, elements)
	e.log.Info("extract.board.ok",
		"board_id", boardID, "elements", len(elements), "chars", len(text))
	return ContentDocument{
		Text:       text,
		SourceKind: constants.SourceBoard,
		WordCount:  CountWords(text),
		Title:      meta.Name,
		Source:     boardID,
	}, nil
}

// contentElements keeps sticky notes, frames, text and shapes with non-empty text.
func contentElements(items []board.Item) []outlineElement {
	out := make([]outlineElement, 0, len(items))
	for _, it := range items {
		if !constants.IsContentItem(it.Type) {
			continue
		}
		txt := it.Text()
		if strings.TrimSpace(txt) == "" {
			continue
		}
		out = append(out, outlineElement{kind: it.Type, text: txt})
	}
	return out
}

// outline renders frames as "### heading" blocks and everything else as bullets.
func outline(boardName string, elements []outlineElement) string {
	lines := make([]string, 0, len(elements))
	for _, el := range elements {
		if el.kind == constants.ItemFrame {
			lines = append(lines, "\n### "+el.text+"\n")
			continue
		}
		lines = append(lines, "- "+el.text)
	}
	return "Miro Board: " + boardName + "\n\n" + strings.Join(lines, "\n")
}
