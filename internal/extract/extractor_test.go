package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/board"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/llm"
)

// staticSource serves a single board in one page.
type staticSource struct {
	meta  board.Meta
	items []board.Item
	calls int
}

func (s *staticSource) ListBoards(context.Context) ([]board.Board, error) {
	return []board.Board{{ID: s.meta.ID, Name: s.meta.Name}}, nil
}

func (s *staticSource) GetBoardMeta(_ context.Context, id string) (board.Meta, error) {
	if id != s.meta.ID {
		return board.Meta{}, common.BoardNotFoundError(id)
	}
	return s.meta, nil
}

func (s *staticSource) GetBoardItems(_ context.Context, id, _ string) (board.ItemPage, error) {
	s.calls++
	if id != s.meta.ID {
		return board.ItemPage{}, common.BoardNotFoundError(id)
	}
	return board.ItemPage{Items: s.items}, nil
}

// endlessSource always reports another page.
type endlessSource struct {
	staticSource
}

func (s *endlessSource) GetBoardItems(_ context.Context, _, _ string) (board.ItemPage, error) {
	s.calls++
	return board.ItemPage{Items: s.items, NextCursor: "again"}, nil
}

type countingRecognizer struct {
	calls int
	text  string
}

func (r *countingRecognizer) Recognize(context.Context, constants.SourceKind, File) (string, error) {
	r.calls++
	return r.text, nil
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		mime, name string
		want       constants.SourceKind
	}{
		{"image/png", "whiteboard", constants.SourceImage},
		{"application/pdf", "notes.bin", constants.SourcePDF},
		{"application/json; charset=utf-8", "x", constants.SourceJSON},
		{"text/plain", "notes", constants.SourceText},
		{"", "Photo.JPEG", constants.SourceImage},
		{"application/octet-stream", "brief.md", constants.SourceText},
		{"", "export.json", constants.SourceJSON},
	}
	for _, tc := range tests {
		got, err := DetectKind(tc.mime, tc.name)
		require.NoError(t, err, "%s %s", tc.mime, tc.name)
		assert.Equal(t, tc.want, got, "%s %s", tc.mime, tc.name)
	}

	_, err := DetectKind("application/zip", "archive.zip")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindUnsupportedInput))
}

func TestParseBoardRef(t *testing.T) {
	id, err := ParseBoardRef("https://miro.com/app/board/uXjVO8k9aBc=/?share_link_id=1")
	require.NoError(t, err)
	assert.Equal(t, "uXjVO8k9aBc=", id)

	id, err = ParseBoardRef("  board-001 ")
	require.NoError(t, err)
	assert.Equal(t, "board-001", id)

	for _, bad := range []string{"", "not a board", "https://example.com/x?y"} {
		_, err := ParseBoardRef(bad)
		require.Error(t, err, bad)
		assert.True(t, common.IsKind(err, common.KindInvalidReference), bad)
	}
}

func TestExtractBoard_Outline(t *testing.T) {
	src := &staticSource{
		meta: board.Meta{ID: "b1", Name: "Retro"},
		items: []board.Item{
			{ID: "1", Type: constants.ItemFrame, Title: "Went well"},
			{ID: "2", Type: constants.ItemStickyNote, Content: "<p>Fast&nbsp;deploys</p>"},
			{ID: "3", Type: "connector", Content: "ignored"},
			{ID: "4", Type: constants.ItemStickyNote, Content: "   "},
			{ID: "5", Type: constants.ItemShape, Content: "Pairing"},
		},
	}
	doc, err := NewExtractor(src, nil, nil).ExtractBoard(context.Background(), "b1")
	require.NoError(t, err)

	assert.Equal(t, "Miro Board: Retro\n\n\n### Went well\n\n- Fast deploys\n- Pairing", doc.Text)
	assert.Equal(t, constants.SourceBoard, doc.SourceKind)
	assert.Equal(t, "Retro", doc.Title)
	assert.Equal(t, "b1", doc.Source)
	assert.Equal(t, CountWords(doc.Text), doc.WordCount)
}

func TestExtractBoard_PaginatesMockSource(t *testing.T) {
	e := NewExtractor(board.NewMockSource(5), nil, nil)

	doc, err := e.ExtractBoard(context.Background(), "board-001")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Text, "Miro Board: Q1 Product Discovery Session\n\n"))
	assert.Equal(t, 4, strings.Count(doc.Text, "### "))
	assert.Equal(t, 15, strings.Count(doc.Text, "\n- "))
	assert.Contains(t, doc.Text, "- Search needs Elasticsearch integration")
}

func TestExtractBoard_Errors(t *testing.T) {
	e := NewExtractor(board.NewMockSource(0), nil, nil)
	_, err := e.ExtractBoard(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindBoardNotFound))

	empty := &staticSource{
		meta:  board.Meta{ID: "b1", Name: "Empty"},
		items: []board.Item{{ID: "1", Type: "connector"}, {ID: "2", Type: constants.ItemText, Content: "<br/>"}},
	}
	_, err = NewExtractor(empty, nil, nil).ExtractBoard(context.Background(), "b1")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindEmptyBoard))
}

func TestExtract_InputValidation(t *testing.T) {
	e := NewExtractor(board.NewMockSource(0), nil, nil)
	ctx := context.Background()

	_, err := e.Extract(ctx, Input{})
	assert.True(t, common.IsKind(err, common.KindMalformedInput))

	_, err = e.Extract(ctx, Input{File: &File{Name: "a.txt"}, BoardRef: "board-001"})
	assert.True(t, common.IsKind(err, common.KindMalformedInput))

	_, err = e.Extract(ctx, Input{BoardRef: "not a board"})
	assert.True(t, common.IsKind(err, common.KindInvalidReference))

	doc, err := e.Extract(ctx, Input{BoardRef: "https://miro.com/app/board/board-002/"})
	require.NoError(t, err)
	assert.Equal(t, "User Onboarding Improvements", doc.Title)
}

func TestExtractFile_JSONReindented(t *testing.T) {
	e := NewExtractor(nil, nil, nil)
	doc, err := e.ExtractFile(context.Background(), File{
		Name:     "ideas.json",
		MIMEType: "application/json",
		Data:     []byte(`{"idea":"<fast> & cheap","score":1.50}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"idea\": \"<fast> & cheap\",\n  \"score\": 1.50\n}", doc.Text)
	assert.Equal(t, constants.SourceJSON, doc.SourceKind)
	assert.Equal(t, "ideas.json", doc.Title)

	_, err = e.ExtractFile(context.Background(), File{Name: "bad.json", Data: []byte(`{"idea":`)})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindMalformedInput))
	assert.True(t, strings.HasPrefix(common.UserMessage(err), "Invalid JSON file"))
}

func TestExtractFile_Text(t *testing.T) {
	e := NewExtractor(nil, nil, nil)
	doc, err := e.ExtractFile(context.Background(), File{Name: "notes.txt", Data: []byte("one two\nthree")})
	require.NoError(t, err)
	assert.Equal(t, "one two\nthree", doc.Text)
	assert.Equal(t, 3, doc.WordCount)

	_, err = e.ExtractFile(context.Background(), File{Name: "notes.txt", Data: []byte{0xff, 0xfe, 0x00}})
	assert.True(t, common.IsKind(err, common.KindMalformedInput))
}

func TestExtractFile_UnsupportedMakesNoRecognizerCall(t *testing.T) {
	rec := &countingRecognizer{text: "x"}
	e := NewExtractor(nil, rec, nil)

	_, err := e.ExtractFile(context.Background(), File{Name: "slides.pptx", MIMEType: "application/vnd.ms-powerpoint", Data: []byte("x")})
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindUnsupportedInput))
	assert.Zero(t, rec.calls)
}

func TestExtractFile_ImageUsesRecognizer(t *testing.T) {
	rec := &countingRecognizer{text: "whiteboard words"}
	doc, err := NewExtractor(nil, rec, nil).ExtractFile(context.Background(), File{Name: "wb.png", Data: []byte("PNG")})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, "whiteboard words", doc.Text)
	assert.Equal(t, constants.SourceImage, doc.SourceKind)
}

func TestVisionRecognizer(t *testing.T) {
	var gotPrompt string
	var gotAtt *llm.Attachment
	gen := llm.GeneratorFunc(func(_ context.Context, prompt string, att *llm.Attachment) (string, error) {
		gotPrompt, gotAtt = prompt, att
		return "  recognized text \n", nil
	})
	v := NewVisionRecognizer(gen, map[constants.SourceKind]string{
		constants.SourcePDF: "read the pdf",
	}, nil)

	text, err := v.Recognize(context.Background(), constants.SourcePDF, File{Name: "brief.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "recognized text", text)
	assert.Equal(t, "read the pdf", gotPrompt)
	require.NotNil(t, gotAtt)
	assert.Equal(t, "application/pdf", gotAtt.MIMEType)
	assert.Equal(t, []byte("%PDF"), gotAtt.Data)

	_, err = v.Recognize(context.Background(), constants.SourceImage, File{Name: "a.png"})
	assert.ErrorContains(t, err, "no OCR instruction")

	failing := NewVisionRecognizer(llm.GeneratorFunc(func(context.Context, string, *llm.Attachment) (string, error) {
		return "", errors.New("boom")
	}), map[constants.SourceKind]string{constants.SourceImage: "read"}, nil)
	_, err = failing.Recognize(context.Background(), constants.SourceImage, File{Name: "a.png"})
	assert.ErrorContains(t, err, "failed to extract text from image: boom")
}

func TestExtractBoard_StopsRunawayPagination(t *testing.T) {
	src := &endlessSource{staticSource{
		meta:  board.Meta{ID: "loop", Name: "Loop"},
		items: []board.Item{{ID: "1", Type: constants.ItemStickyNote, Content: "again"}},
	}}

	_, err := NewExtractor(src, nil, nil).ExtractBoard(context.Background(), "loop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pagination did not terminate")
	assert.Equal(t, maxBoardPages, src.calls)
}
