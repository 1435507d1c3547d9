package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, files <-chan FileInfo, errs <-chan error) []FileInfo {
	t.Helper()
	var out []FileInfo
	for f := range files {
		out = append(out, f)
	}
	for err := range errs {
		require.NoError(t, err)
	}
	return out
}

func TestWalkFiltersByExtensionAndIgnore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.bin"), []byte("hi"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "config"), []byte("hi"), 0o644))

	files, errs := Walk(root, Options{
		AllowedExts:    map[string]bool{"txt": true},
		IgnorePatterns: []string{".git"},
	})
	out := drain(t, files, errs)

	require.Len(t, out, 1)
	require.Equal(t, "a.txt", filepath.Base(out[0].Path))
}

func TestWalkRespectsSizeCeiling(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), []byte("0123456789"), 0o644))

	files, errs := Walk(root, Options{
		AllowedExts:  map[string]bool{"txt": true},
		MaxFileBytes: 5,
	})
	out := drain(t, files, errs)
	require.Empty(t, out)
}

func TestWalkIsDeterministic(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}

	files1, errs1 := Walk(root, Options{AllowedExts: map[string]bool{"txt": true}})
	first := drain(t, files1, errs1)
	files2, errs2 := Walk(root, Options{AllowedExts: map[string]bool{"txt": true}})
	second := drain(t, files2, errs2)
	require.Equal(t, first, second)
}
