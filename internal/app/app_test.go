package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/llm"
	"github.com/joseph-ayodele/backlog-forge/internal/pipeline"
	"github.com/joseph-ayodele/backlog-forge/internal/server"
)

func testConfig() *common.Config {
	return &common.Config{
		Server: common.ServerConfig{HTTPAddr: ":0", MaxUploadMB: 10},
		Board:  common.BoardConfig{PageSize: 50},
		LLM:    common.LLMConfig{Model: "gpt-4o-mini", MaxTokens: 1024},
		OCR:    common.OCRConfig{Backend: common.OCRBackendVision},
		Store:  common.StoreConfig{DSN: "sqlite::memory:"},
		Pipeline: common.PipelineConfig{
			BatchWorkers: 1,
		},
	}
}

func TestNew_WiresPipelineAndStore(t *testing.T) {
	sample, err := os.ReadFile("../schema/testdata/backlog.json")
	require.NoError(t, err)
	gen := llm.GeneratorFunc(func(context.Context, string, *llm.Attachment) (string, error) {
		return string(sample), nil
	})

	ctx := context.Background()
	a, err := New(ctx, testConfig(), nil, Options{Generator: gen})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(ctx) })

	assert.Equal(t, server.ModeMock, a.BoardMode)
	require.NotNil(t, a.Runs)

	runID := uuid.New()
	out, err := a.Processor.Process(common.WithRunID(ctx, runID.String()), pipeline.Input{BoardRef: "board-001"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Epics)

	run, err := a.Runs.Get(ctx, runID)
	require.NoError(t, err)
	assert.EqualValues(t, "SUCCEEDED", run.Status)

	rec := httptest.NewRecorder()
	a.Server().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_SkipStore(t *testing.T) {
	a, err := New(context.Background(), testConfig(), nil, Options{SkipStore: true})
	require.NoError(t, err)
	assert.Nil(t, a.DB)
	assert.Nil(t, a.Runs)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.OCR.Backend = "abbyy"
	_, err := New(context.Background(), cfg, nil, Options{})
	assert.ErrorContains(t, err, "OCR_BACKEND")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "warn", true)
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
