package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/config"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/embedder"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Embeddings.OllamaURL = ""
	cfg.Embeddings.Model = ""
	return cfg
}

func TestOpenWiresHashEmbedderWhenOllamaUnset(t *testing.T) {
	cfg := testConfig(t)
	a, err := Open(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Embedder.(*embedder.Hash)
	require.True(t, ok)
}

func TestOpenWiresOllamaEmbedderWhenConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.Embeddings.OllamaURL = "http://localhost:11434"
	cfg.Embeddings.Model = "nomic-embed-text"
	a, err := Open(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Embedder.(*embedder.Ollama)
	require.True(t, ok)
}

func TestOpenCreatesDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataDir = filepath.Join(cfg.DataDir, "nested", "dir")
	a, err := Open(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestHealthReflectsStoreAndIndexState(t *testing.T) {
	cfg := testConfig(t)
	a, err := Open(cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	h, err := a.Health(ctx)
	require.NoError(t, err)
	require.True(t, h.OK)
	require.Equal(t, 0, h.NFiles)
	require.False(t, h.IndexDirty)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	_, err = a.Scanner.Scan(ctx, root)
	require.NoError(t, err)

	h2, err := a.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, h2.NFiles)
}

func TestOpenLoadsPersistedIndexAcrossReopen(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a1, err := Open(cfg, nil)
	require.NoError(t, err)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world"), 0o644))
	_, err = a1.Scanner.Scan(ctx, root)
	require.NoError(t, err)
	require.NoError(t, a1.Close())

	a2, err := Open(cfg, nil)
	require.NoError(t, err)
	defer a2.Close()

	h, err := a2.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, h.NFiles)
	require.Equal(t, 1, h.NEmbedded)
}
