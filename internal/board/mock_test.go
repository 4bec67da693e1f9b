package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

func TestMockSource_ListBoards(t *testing.T) {
	src := NewMockSource(0)

	boards, err := src.ListBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 3)
	assert.Equal(t, "board-001", boards[0].ID)
	assert.Equal(t, "Q1 Product Discovery Session", boards[0].Name)
	assert.Equal(t, 2024, boards[0].LastModified.Year())
}

func TestMockSource_ItemsPaginate(t *testing.T) {
	src := NewMockSource(5)
	ctx := context.Background()

	var all []Item
	cursor := ""
	pages := 0
	for {
		page, err := src.GetBoardItems(ctx, "board-001", cursor)
		require.NoError(t, err)
		all = append(all, page.Items...)
		pages++
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Len(t, all, 19)
	assert.Equal(t, 4, pages)

	frames := 0
	for _, it := range all {
		if it.Type == constants.ItemFrame {
			frames++
			assert.Empty(t, it.Content)
			assert.NotEmpty(t, it.Text())
		}
	}
	assert.Equal(t, 4, frames)
	assert.Equal(t, "User Pain Points", all[0].Text())
	assert.Equal(t, "1", all[1].ParentID)
}

func TestMockSource_NotFound(t *testing.T) {
	src := NewMockSource(0)

	_, err := src.GetBoardMeta(context.Background(), "board-999")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindBoardNotFound))
	assert.Contains(t, err.Error(), "not found")

	_, err = src.GetBoardItems(context.Background(), "board-999", "")
	assert.True(t, common.IsKind(err, common.KindBoardNotFound))
}

func TestMockSource_BadCursor(t *testing.T) {
	_, err := NewMockSource(0).GetBoardItems(context.Background(), "board-002", "abc")
	assert.True(t, common.IsKind(err, common.KindMalformedInput))
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"  padded  ", "padded"},
		{"<p>Offline mode</p><p>with sync</p>", "Offline mode with sync"},
		{"Tom &amp; Jerry<br/>again", "Tom & Jerry again"},
		{"<strong>bold</strong>&nbsp;move", "bold move"},
		{"<p></p>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.in))
		})
	}
}
