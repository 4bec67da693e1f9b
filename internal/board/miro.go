package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

const (
	DefaultMiroBaseURL = "https://api.miro.com/v2"
	maxMiroPageSize    = 50
)

// MiroConfig configures the live board source.
type MiroConfig struct {
	APIKey   string
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// MiroClient reads boards from the Miro REST API v2.
type MiroClient struct {
	cfg     MiroConfig
	http    *http.Client
	tracer  trace.Tracer
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

type miroBoard struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ModifiedAt  string `json:"modifiedAt"`
	Picture     *struct {
		ImageURL string `json:"imageURL"`
	} `json:"picture"`
}

type miroBoardsResponse struct {
	Data   []miroBoard `json:"data"`
	Total  int         `json:"total"`
	Size   int         `json:"size"`
	Offset int         `json:"offset"`
}

type miroItem struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data *struct {
		Content string `json:"content"`
		Title   string `json:"title"`
	} `json:"data"`
	Parent *struct {
		ID string `json:"id"`
	} `json:"parent"`
}

type miroItemsResponse struct {
	Data   []miroItem `json:"data"`
	Total  int        `json:"total"`
	Size   int        `json:"size"`
	Cursor string     `json:"cursor"`
}

// NewMiroClient builds the client. A missing API key is reported on first use.
func NewMiroClient(cfg MiroConfig, logger *slog.Logger) *MiroClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultMiroBaseURL
	}
	if cfg.PageSize <= 0 || cfg.PageSize > maxMiroPageSize {
		cfg.PageSize = maxMiroPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "miro-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("board.breaker.state", "name", name, "from", from.String(), "to", to.String())
		},
		// A missing board is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || common.IsKind(err, common.KindBoardNotFound)
		},
	}

	return &MiroClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		tracer:  otel.Tracer("miro-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     logger,
	}
}

func (c *MiroClient) ListBoards(ctx context.Context) ([]Board, error) {
	ctx, span := c.tracer.Start(ctx, "miro.list_boards")
	defer span.End()

	var out []Board
	offset := 0
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.cfg.PageSize))
		q.Set("offset", strconv.Itoa(offset))

		var resp miroBoardsResponse
		if err := c.get(ctx, "/boards?"+q.Encode(), "", &resp); err != nil {
			recordSpanError(span, err)
			return nil, fmt.Errorf("list boards: %w", err)
		}
		for _, b := range resp.Data {
			out = append(out, toBoard(b))
		}
		offset += len(resp.Data)
		if len(resp.Data) == 0 || offset >= resp.Total {
			break
		}
	}

	span.SetAttributes(attribute.Int("boards", len(out)))
	c.log.Info("board.list.ok", "boards", len(out))
	return out, nil
}

func (c *MiroClient) GetBoardMeta(ctx context.Context, boardID string) (Meta, error) {
	ctx, span := c.tracer.Start(ctx, "miro.get_board")
	defer span.End()
	span.SetAttributes(attribute.String("board_id", boardID))

	var b miroBoard
	if err := c.get(ctx, "/boards/"+url.PathEscape(boardID), boardID, &b); err != nil {
		recordSpanError(span, err)
		return Meta{}, err
	}
	return Meta{ID: b.ID, Name: b.Name}, nil
}

func (c *MiroClient) GetBoardItems(ctx context.Context, boardID, cursor string) (ItemPage, error) {
	ctx, span := c.tracer.Start(ctx, "miro.get_board_items")
	defer span.End()
	span.SetAttributes(attribute.String("board_id", boardID), attribute.Bool("has_cursor", cursor != ""))

	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.cfg.PageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var resp miroItemsResponse
	if err := c.get(ctx, "/boards/"+url.PathEscape(boardID)+"/items?"+q.Encode(), boardID, &resp); err != nil {
		recordSpanError(span, err)
		return ItemPage{}, err
	}

	page := ItemPage{Items: make([]Item, 0, len(resp.Data)), NextCursor: resp.Cursor}
	for _, it := range resp.Data {
		item := Item{ID: it.ID, Type: it.Type}
		if it.Data != nil {
			item.Content = it.Data.Content
			item.Title = it.Data.Title
		}
		if it.Parent != nil {
			item.ParentID = it.Parent.ID
		}
		page.Items = append(page.Items, item)
	}
	span.SetAttributes(attribute.Int("items", len(page.Items)))
	c.log.Debug("board.items.page", "board_id", boardID, "items", len(page.Items), "has_next", page.NextCursor != "")
	return page, nil
}

// get performs one GET through the circuit breaker and decodes the JSON body into out.
// boardID, when set, turns a 404 into BoardNotFound.
func (c *MiroClient) get(ctx context.Context, endpoint, boardID string, out any) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return common.NewAppError("MIRO_UNAUTHORIZED",
			"MIRO_API_KEY environment variable is not set", common.ErrUnauthorized)
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doGet(ctx, endpoint, boardID, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("miro api unavailable: %w", err)
	}
	return err
}

func (c *MiroClient) doGet(ctx context.Context, endpoint, boardID string, out any) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("miro request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("miro response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode == http.StatusNotFound && boardID != "" {
		return common.BoardNotFoundError(boardID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("board.http_error",
			"status", resp.StatusCode, "endpoint", endpoint,
			"elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("miro api error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode miro response: %w", err)
	}
	return nil
}

func toBoard(b miroBoard) Board {
	out := Board{ID: b.ID, Name: b.Name, Description: b.Description}
	if t, err := time.Parse(time.RFC3339, b.ModifiedAt); err == nil {
		out.LastModified = t
	}
	if b.Picture != nil {
		out.ThumbnailURL = b.Picture.ImageURL
	}
	return out
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
