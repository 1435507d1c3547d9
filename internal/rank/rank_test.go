package rank

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/activity"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/apperr"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/config"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/index"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/store"
)

func newTestRanker(t *testing.T) (*Ranker, store.Store, *index.Index) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath, 4, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	idx := index.New(st, "", nil)
	act := activity.New(st, 5*time.Minute, nil)
	cfg := config.Default().Ranking
	r := New(st, idx, act, cfg, nil)
	return r, st, idx
}

func TestRecommendUnknownFileReturnsNotFound(t *testing.T) {
	r, _, _ := newTestRanker(t)
	_, err := r.Recommend(context.Background(), "/nope.txt", 5, time.Now())
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.CodeOf(err))
}

// P7: the query file never appears in its own recommendation list.
func TestRecommendExcludesQueryFile(t *testing.T) {
	ctx := context.Background()
	r, st, _ := newTestRanker(t)

	now := time.Now()
	idA, _, err := st.UpsertFile(ctx, "/a.txt", 1, now, "text/plain", "ha")
	require.NoError(t, err)
	require.NoError(t, st.PutContent(ctx, idA, "hello", []float32{1, 0, 0}))
	idB, _, err := st.UpsertFile(ctx, "/b.txt", 1, now, "text/plain", "hb")
	require.NoError(t, err)
	require.NoError(t, st.PutContent(ctx, idB, "hello", []float32{1, 0, 0}))

	recs, err := r.Recommend(ctx, "/a.txt", 5, now)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NotEqual(t, idA, rec.File.ID)
	}
}

// P6: every score component stays within [0, 1] and the final blended score
// within [0, α+β+γ].
func TestRecommendScoresAreInUnitRange(t *testing.T) {
	ctx := context.Background()
	r, st, _ := newTestRanker(t)
	now := time.Now()

	idA, _, _ := st.UpsertFile(ctx, "/a.txt", 1, now, "text/plain", "ha")
	require.NoError(t, st.PutContent(ctx, idA, "hello", []float32{1, 0, 0}))
	idB, _, _ := st.UpsertFile(ctx, "/b.txt", 1, now.Add(-72*time.Hour), "text/plain", "hb")
	require.NoError(t, st.PutContent(ctx, idB, "hello", []float32{0.8, 0.2, 0}))

	recs, err := r.Recommend(ctx, "/a.txt", 5, now)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	for _, rec := range recs {
		require.GreaterOrEqual(t, rec.Semantic, 0.0)
		require.LessOrEqual(t, rec.Semantic, 1.0)
		require.GreaterOrEqual(t, rec.Recency, 0.0)
		require.LessOrEqual(t, rec.Recency, 1.0)
		require.GreaterOrEqual(t, rec.CoAccess, 0.0)
		require.LessOrEqual(t, rec.CoAccess, 1.0)
		require.GreaterOrEqual(t, rec.FinalScore, 0.0)
		require.LessOrEqual(t, rec.FinalScore, r.cfg.Alpha+r.cfg.Beta+r.cfg.Gamma)
	}
}

// P5: a more recently modified file scores strictly higher on recency.
func TestRecencyScoreMonotonic(t *testing.T) {
	cfg := config.Default().Ranking
	now := time.Now()

	fresh := recencyScore(now, nil, now, cfg)
	stale := recencyScore(now.Add(-60*24*time.Hour), nil, now, cfg)
	require.Greater(t, fresh, stale)
}

// P8: identical inputs always produce the identical ordering.
func TestRecommendIsDeterministic(t *testing.T) {
	ctx := context.Background()
	r, st, _ := newTestRanker(t)
	now := time.Now()

	idA, _, _ := st.UpsertFile(ctx, "/a.txt", 1, now, "text/plain", "ha")
	require.NoError(t, st.PutContent(ctx, idA, "hello", []float32{1, 0, 0}))
	for i, name := range []string{"/b.txt", "/c.txt", "/d.txt"} {
		id, _, _ := st.UpsertFile(ctx, name, 1, now, "text/plain", name)
		_ = i
		require.NoError(t, st.PutContent(ctx, id, "hello", []float32{1, 0, 0}))
	}

	first, err := r.Recommend(ctx, "/a.txt", 5, now)
	require.NoError(t, err)
	second, err := r.Recommend(ctx, "/a.txt", 5, now)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Equal(t, first[i].File.ID, second[i].File.ID)
	}
}

// spec.md §4.5 step 4: a candidate pulled in only via a CoPair row (not
// surfaced by the ANN search) still gets a real cosine similarity computed
// on demand from stored embeddings, not a flat 0.
//
// k=1 makes kANN = max(4*1, 32) = 32. Thirty-two filler files score exactly
// 0.5 against the query, filling the ANN's top-32 cap; the partner scores
// 0.4 (lower than every filler, so it never places in the ANN's top-32) but
// carries a saturated co-access count, so its final score still beats every
// filler's once its on-demand semantic score is folded in — the only way it
// can appear as the sole result of a k=1 call.
func TestRecommendComputesSemanticOnDemandForCoPairOnlyCandidate(t *testing.T) {
	ctx := context.Background()
	r, st, _ := newTestRanker(t)
	now := time.Now()

	idQ, _, err := st.UpsertFile(ctx, "/q.txt", 1, now, "text/plain", "hq")
	require.NoError(t, err)
	require.NoError(t, st.PutContent(ctx, idQ, "q", []float32{1, 0, 0}))

	fillerVec := []float32{0.5, 0.8660254, 0} // cosine 0.5 against [1,0,0]
	for i := 0; i < 32; i++ {
		id, _, err := st.UpsertFile(ctx, fmt.Sprintf("/filler-%02d.txt", i), 1, now, "text/plain", fmt.Sprintf("hf%02d", i))
		require.NoError(t, err)
		require.NoError(t, st.PutContent(ctx, id, "f", fillerVec))
	}

	partnerVec := []float32{0.4, 0.9165151, 0} // cosine 0.4 against [1,0,0]
	idPartner, _, err := st.UpsertFile(ctx, "/partner.txt", 1, now, "text/plain", "hp")
	require.NoError(t, err)
	require.NoError(t, st.PutContent(ctx, idPartner, "p", partnerVec))
	for i := 0; i < 50; i++ {
		require.NoError(t, st.BumpCoPair(ctx, idQ, idPartner))
	}

	recs, err := r.Recommend(ctx, "/q.txt", 1, now)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, idPartner, recs[0].File.ID)
	require.InDelta(t, 0.4, recs[0].Semantic, 1e-3)
}

func TestRecommendClampsKToRange(t *testing.T) {
	ctx := context.Background()
	r, st, _ := newTestRanker(t)
	now := time.Now()
	idA, _, _ := st.UpsertFile(ctx, "/a.txt", 1, now, "text/plain", "ha")
	require.NoError(t, st.PutContent(ctx, idA, "hello", []float32{1, 0, 0}))

	recs, err := r.Recommend(ctx, "/a.txt", 0, now)
	require.NoError(t, err)
	require.LessOrEqual(t, len(recs), maxK)
	_ = recs
}
