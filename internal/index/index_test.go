package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath, 4, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedEmbedded(t *testing.T, st store.Store, path string, vec []float32) int64 {
	t.Helper()
	ctx := context.Background()
	id, _, err := st.UpsertFile(ctx, path, 1, time.Now(), "text/plain", path)
	require.NoError(t, err)
	require.NoError(t, st.PutContent(ctx, id, "snippet", vec))
	return id
}

// P7: the query file itself never appears among its own recommendations.
func TestQueryExcludesSelf(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	idA := seedEmbedded(t, st, "/a.txt", []float32{1, 0, 0})
	seedEmbedded(t, st, "/b.txt", []float32{1, 0, 0})

	idx := New(st, "", nil)
	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 10, idA)
	require.NoError(t, err)
	for _, m := range matches {
		require.NotEqual(t, idA, m.ID)
	}
}

// P9: results respect k and are sorted by descending similarity.
func TestQueryRespectsKAndOrdering(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	seedEmbedded(t, st, "/a.txt", []float32{1, 0, 0})
	seedEmbedded(t, st, "/b.txt", []float32{0.9, 0.1, 0})
	seedEmbedded(t, st, "/c.txt", []float32{0, 1, 0})

	idx := New(st, "", nil)
	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 2, -1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

// spec.md:93: k is clamped to [0, number of indexed items] — k=0 (or
// negative) returns a zero-length result, not every remaining match.
func TestQueryZeroKReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	seedEmbedded(t, st, "/a.txt", []float32{1, 0, 0})
	seedEmbedded(t, st, "/b.txt", []float32{0.9, 0.1, 0})

	idx := New(st, "", nil)
	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 0, -1)
	require.NoError(t, err)
	require.Empty(t, matches)

	matches, err = idx.Query(ctx, []float32{1, 0, 0}, -3, -1)
	require.NoError(t, err)
	require.Empty(t, matches)
}

// P8: identical scores break ties on ascending id, deterministically.
func TestQueryTieBreaksOnID(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	idA := seedEmbedded(t, st, "/a.txt", []float32{1, 0, 0})
	idB := seedEmbedded(t, st, "/b.txt", []float32{1, 0, 0})

	idx := New(st, "", nil)
	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 10, -1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.InDelta(t, matches[0].Score, matches[1].Score, 1e-9)
	lo, hi := idA, idB
	if hi < lo {
		lo, hi = hi, lo
	}
	require.Equal(t, lo, matches[0].ID)
	require.Equal(t, hi, matches[1].ID)
}

func TestEnsureCurrentRebuildsWhenEpochAdvances(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	seedEmbedded(t, st, "/a.txt", []float32{1, 0, 0})

	idx := New(st, "", nil)
	require.NoError(t, idx.Load(ctx))
	require.False(t, idx.Stale(0))

	seedEmbedded(t, st, "/b.txt", []float32{0, 1, 0})
	_, err := st.BumpScanEpoch(ctx)
	require.NoError(t, err)

	require.True(t, idx.Stale(1))
	matches, err := idx.Query(ctx, []float32{0, 1, 0}, 10, -1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.False(t, idx.Stale(1))
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	seedEmbedded(t, st, "/a.txt", []float32{1, 0, 0})
	seedEmbedded(t, st, "/b.txt", []float32{0, 1, 0})

	path := filepath.Join(t.TempDir(), "ann.idx")
	idx1 := New(st, path, nil)
	require.NoError(t, idx1.Load(ctx))

	idx2 := New(st, path, nil)
	require.NoError(t, idx2.Load(ctx))

	m1, err := idx1.Query(ctx, []float32{1, 0, 0}, 10, -1)
	require.NoError(t, err)
	m2, err := idx2.Query(ctx, []float32{1, 0, 0}, 10, -1)
	require.NoError(t, err)
	require.Equal(t, m1, m2)
}

func TestLoadFallsBackToRebuildOnCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	seedEmbedded(t, st, "/a.txt", []float32{1, 0, 0})
	seedEmbedded(t, st, "/b.txt", []float32{0, 1, 0})

	path := filepath.Join(t.TempDir(), "ann.idx")
	require.NoError(t, os.WriteFile(path, []byte("not a valid snapshot"), 0o644))

	idx := New(st, path, nil)
	require.NoError(t, idx.Load(ctx))
	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 10, -1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

// spec.md §4.3: with fewer than two live embeddings, query returns an empty
// list without error — even for the one embedding that does exist.
func TestQueryEmptyBelowTwoLiveEmbeddings(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	seedEmbedded(t, st, "/a.txt", []float32{1, 0, 0})

	idx := New(st, "", nil)
	matches, err := idx.Query(ctx, []float32{1, 0, 0}, 10, -1)
	require.NoError(t, err)
	require.Empty(t, matches)
}
