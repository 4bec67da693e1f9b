package board

import (
	"context"
	"time"
)

// Board is a listing entry returned by ListBoards.
type Board struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	LastModified time.Time `json:"lastModified"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
}

// Meta is the minimal board header needed to title an extraction.
type Meta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is one board widget. Content is data.content, Title is data.title.
type Item struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	Title    string `json:"title,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

// ItemPage is one page of items. An empty NextCursor ends pagination.
type ItemPage struct {
	Items      []Item
	NextCursor string
}

// Source is implemented by the live Miro client and the static mock dataset.
type Source interface {
	ListBoards(ctx context.Context) ([]Board, error)
	GetBoardItems(ctx context.Context, boardID, cursor string) (ItemPage, error)
	GetBoardMeta(ctx context.Context, boardID string) (Meta, error)
}
