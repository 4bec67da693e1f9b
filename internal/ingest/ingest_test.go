package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.md"), "# notes")
	writeFile(t, filepath.Join(root, "a.json"), "{}")
	writeFile(t, filepath.Join(root, "nested", "whiteboard.PNG"), "png")
	writeFile(t, filepath.Join(root, "deck.pptx"), "x")
	writeFile(t, filepath.Join(root, ".hidden", "secret.txt"), "x")
	writeFile(t, filepath.Join(root, ".draft.txt"), "x")

	got, stats, err := ScanDirectory(root, nil, true)
	require.NoError(t, err)

	var names []string
	for _, c := range got {
		names = append(names, filepath.Base(c.Path))
	}
	assert.Equal(t, []string{"a.json", "b.md", "whiteboard.PNG"}, names)
	assert.Equal(t, constants.SourceImage, got[2].Kind)
	assert.Equal(t, "png", got[2].Ext)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(1), stats.Skipped)

	got, _, err = ScanDirectory(root, []string{".md"}, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b.md", filepath.Base(got[0].Path))

	_, _, err = ScanDirectory(filepath.Join(root, "missing"), nil, true)
	assert.Error(t, err)
	_, _, err = ScanDirectory(" ", nil, true)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, path, "hello board")

	f, err := LoadFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, []byte("hello board"), f.Data)

	_, err = LoadFile(path, 4)
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindMalformedInput))
}

func TestStartWatcher_EmitsNewFiles(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}}, nil)
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "ignored.bin"), "x")
	target := filepath.Join(root, "ideas.txt")
	writeFile(t, target, "idea")

	select {
	case p := <-events:
		assert.Equal(t, target, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher event")
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
