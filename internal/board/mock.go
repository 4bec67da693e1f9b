package board

import (
	"context"
	"strconv"
	"time"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

type mockBoard struct {
	board Board
	items []Item
}

// MockSource serves a fixed set of discovery boards, for development without
// Miro credentials. Items are paged with a numeric cursor like the live API.
type MockSource struct {
	boards   []mockBoard
	pageSize int
}

// NewMockSource returns the static dataset. pageSize <= 0 serves every item in one page.
func NewMockSource(pageSize int) *MockSource {
	return &MockSource{boards: mockDataset(), pageSize: pageSize}
}

func (m *MockSource) ListBoards(_ context.Context) ([]Board, error) {
	out := make([]Board, 0, len(m.boards))
	for _, b := range m.boards {
		out = append(out, b.board)
	}
	return out, nil
}

func (m *MockSource) GetBoardMeta(_ context.Context, boardID string) (Meta, error) {
	b, ok := m.find(boardID)
	if !ok {
		return Meta{}, common.BoardNotFoundError(boardID)
	}
	return Meta{ID: b.board.ID, Name: b.board.Name}, nil
}

func (m *MockSource) GetBoardItems(_ context.Context, boardID, cursor string) (ItemPage, error) {
	b, ok := m.find(boardID)
	if !ok {
		return ItemPage{}, common.BoardNotFoundError(boardID)
	}
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 || n > len(b.items) {
			return ItemPage{}, common.MalformedInputError("board cursor", err)
		}
		start = n
	}
	end := len(b.items)
	if m.pageSize > 0 && start+m.pageSize < end {
		end = start + m.pageSize
	}
	page := ItemPage{Items: append([]Item(nil), b.items[start:end]...)}
	if end < len(b.items) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (m *MockSource) find(id string) (mockBoard, bool) {
	for _, b := range m.boards {
		if b.board.ID == id {
			return b, true
		}
	}
	return mockBoard{}, false
}

// section builds a frame followed by its sticky notes.
func section(frameID, title string, nextID int, notes ...string) ([]Item, int) {
	items := []Item{{ID: frameID, Type: constants.ItemFrame, Title: title}}
	for _, n := range notes {
		items = append(items, Item{
			ID:       strconv.Itoa(nextID),
			Type:     constants.ItemStickyNote,
			Content:  n,
			ParentID: frameID,
		})
		nextID++
	}
	return items, nextID
}

func sections(specs ...[]string) []Item {
	var out []Item
	id := 1
	for _, s := range specs {
		frameID := strconv.Itoa(id)
		var items []Item
		items, id = section(frameID, s[0], id+1, s[1:]...)
		out = append(out, items...)
	}
	return out
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func mockDataset() []mockBoard {
	return []mockBoard{
		{
			board: Board{
				ID:           "board-001",
				Name:         "Q1 Product Discovery Session",
				Description:  "Brainstorming session for Q1 features",
				LastModified: mustTime("2024-12-18T15:30:00Z"),
			},
			items: sections(
				[]string{"User Pain Points",
					"Users struggle to find key features in the navigation",
					"Onboarding takes too long - users drop off",
					"No way to save progress and continue later",
					"Mobile experience is frustrating"},
				[]string{"Feature Ideas",
					"Add quick action shortcuts on dashboard",
					"Implement progress saving with auto-resume",
					"Create guided tour for new users",
					"Redesign mobile navigation with bottom tabs",
					"Add search functionality across all sections"},
				[]string{"Technical Considerations",
					"Need to consider API rate limits for auto-save",
					"Mobile redesign requires native components",
					"Search needs Elasticsearch integration"},
				[]string{"User Quotes",
					`"I never know where to find things"`,
					`"The app crashed and I lost all my work"`,
					`"Why cant I just search for what I need?"`},
			),
		},
		{
			board: Board{
				ID:           "board-002",
				Name:         "User Onboarding Improvements",
				Description:  "Ideas for improving the onboarding flow",
				LastModified: mustTime("2024-12-17T10:00:00Z"),
			},
			items: sections(
				[]string{"Current Problems",
					"40% drop-off rate during onboarding",
					"Users skip tutorial and get confused",
					"Too many form fields required upfront"},
				[]string{"Solutions",
					"Progressive profiling - ask less upfront",
					"Interactive tutorial with real data",
					"Gamification with progress badges",
					"Personalized onboarding based on role"},
			),
		},
		{
			board: Board{
				ID:           "board-003",
				Name:         "Mobile App Feature Brainstorm",
				Description:  "New features for mobile application",
				LastModified: mustTime("2024-12-15T14:20:00Z"),
			},
			items: sections(
				[]string{"Must Have",
					"Offline mode with sync",
					"Push notifications",
					"Biometric login"},
				[]string{"Nice to Have",
					"Dark mode",
					"Widget support",
					"Voice commands"},
			),
		},
	}
}
