package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/llm"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

func fakeOpenAI(t *testing.T, status int, content string, seen *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			assert.NoError(t, json.Unmarshal(body, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_TextOnly(t *testing.T) {
	var seen capturedRequest
	srv := fakeOpenAI(t, http.StatusOK, `{"epics":[]}`, &seen)
	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, Temperature: 0.2, MaxTokens: 8192}, nil)

	out, err := c.Generate(context.Background(), "hello prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"epics":[]}`, out)

	assert.Equal(t, "gpt-4o-mini", seen.Model)
	assert.Equal(t, 8192, seen.MaxTokens)
	assert.InDelta(t, 0.2, seen.Temperature, 0.0001)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "user", seen.Messages[0].Role)
	assert.JSONEq(t, `"hello prompt"`, string(seen.Messages[0].Content))
}

func TestGenerate_WithAttachment(t *testing.T) {
	var seen capturedRequest
	srv := fakeOpenAI(t, http.StatusOK, "  extracted text  ", &seen)
	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)

	out, err := c.Generate(context.Background(), "extract all text", &llm.Attachment{
		Name: "board.png", MIMEType: "image/png", Data: []byte("PNG"),
	})
	require.NoError(t, err)
	assert.Equal(t, "  extracted text  ", out)

	require.Len(t, seen.Messages, 1)
	var parts []map[string]any
	require.NoError(t, json.Unmarshal(seen.Messages[0].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0]["type"])
	assert.Equal(t, "image_url", parts[1]["type"])
	img := parts[1]["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,UE5H", img["url"])
}

func TestGenerate_MissingCredential(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	before := testutil.ToFloat64(llm.RequestsTotal.WithLabelValues("gpt-4o-mini", llm.StatusUnavailable))
	c := NewClient(Config{BaseURL: srv.URL}, nil)

	_, err := c.Generate(context.Background(), "p", nil)
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindGenerationUnavailable))
	assert.Zero(t, calls)
	assert.Equal(t, before+1, testutil.ToFloat64(llm.RequestsTotal.WithLabelValues("gpt-4o-mini", llm.StatusUnavailable)))
}

func TestGenerate_ProviderErrorPropagates(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusInternalServerError, "", nil)
	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)

	_, err := c.Generate(context.Background(), "p", nil)
	require.Error(t, err)
	var apiErr *goopenai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatusCode)
	_, tagged := common.KindOf(err)
	assert.False(t, tagged)
}

func TestGenerate_EmptyCompletion(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusOK, "   ", nil)
	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)

	_, err := c.Generate(context.Background(), "p", nil)
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}
