// Package rank implements the Ranker component (spec.md §4.5): given a
// query file, it logs the access, assembles a candidate set from the ANN
// Index and the co-occurrence table, scores each candidate on three
// factors, and returns the top-k by a fixed, deterministic tie-break.
//
// Candidate-set assembly (ANN matches unioned with co-accessed files,
// deduplicated by id) is grounded on the dedup-by-key merge pattern the
// pack's RAG retriever used to combine heterogeneous candidate sources
// before scoring.
package rank

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/activity"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/apperr"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/config"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/index"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/store"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/vecmath"
)

// Recommendation is one scored candidate returned to the caller.
type Recommendation struct {
	File       store.File
	Semantic   float64
	Recency    float64
	CoAccess   float64
	FinalScore float64
}

// Ranker produces ranked file recommendations for a query file.
type Ranker struct {
	store    store.Store
	index    *index.Index
	activity *activity.Activity
	cfg      config.Ranking
	log      *zap.Logger
}

// New builds a Ranker.
func New(st store.Store, idx *index.Index, act *activity.Activity, cfg config.Ranking, log *zap.Logger) *Ranker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ranker{store: st, index: idx, activity: act, cfg: cfg, log: log}
}

const (
	minK = 1
	maxK = 100
)

// Recommend logs an access to queryPath (spec.md §4.5: "logging the access
// happens before scoring, so the query file's own co-occurrence window is
// current for this call"), then returns up to k files most related to it,
// excluding the query file itself (P7).
func (r *Ranker) Recommend(ctx context.Context, queryPath string, k int, now time.Time) ([]Recommendation, error) {
	if k < minK {
		k = minK
	}
	if k > maxK {
		k = maxK
	}

	// A tombstoned or never-embedded query file is not an error (spec.md
	// §4.5 step 1): it still yields recency/co-occurrence-only
	// recommendations, since it has no entry in embByID below and so skips
	// the ANN search.
	qf, err := r.store.GetFileByPath(ctx, queryPath)
	if err != nil {
		return nil, err
	}
	if qf == nil {
		return nil, apperr.New(apperr.NotFound, "file not registered: "+queryPath)
	}

	if _, err := r.activity.Log(ctx, qf.ID, now); err != nil {
		return nil, err
	}

	candidates := make(map[int64]*Recommendation)

	kANN := 4 * k
	if kANN < 32 {
		kANN = 32
	}

	embByID, err := r.embeddingsByID(ctx)
	if err != nil {
		return nil, err
	}
	qVec := embByID[qf.ID]
	if qVec != nil {
		matches, err := r.index.Query(ctx, qVec, kANN, qf.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			candidates[m.ID] = &Recommendation{Semantic: m.Score}
		}
	}

	// Every file with a CoPair row against the query joins the candidate
	// set too, even if the ANN search didn't surface it (spec.md §4.5 step
	// 3(b)) — first source (ANN) wins on duplicate key, same rule the
	// teacher's hybrid retriever used for its two-source merge. A candidate
	// pulled in this way has no ANN score, so its semantic similarity is
	// computed on demand from the same embedding set the ANN search itself
	// used, falling back to 0 only when one side has no embedding at all.
	partners, err := r.store.CoPairPartners(ctx, qf.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range partners {
		if _, ok := candidates[id]; ok {
			continue
		}
		rec := &Recommendation{}
		if cVec, ok := embByID[id]; ok && qVec != nil {
			rec.Semantic = vecmath.ClampUnit(vecmath.Cosine(qVec, cVec))
		}
		candidates[id] = rec
	}

	for id, rec := range candidates {
		co, err := r.store.CoCount(ctx, qf.ID, id)
		if err != nil {
			return nil, err
		}
		rec.CoAccess = cooccurrenceScore(co)
	}

	out := make([]Recommendation, 0, len(candidates))
	for id, rec := range candidates {
		f, err := r.store.GetFileByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if f == nil || f.Tombstoned {
			continue
		}
		rec.File = *f
		act, err := r.store.GetActivity(ctx, id)
		if err != nil {
			return nil, err
		}
		var lastAccessed *time.Time
		if act != nil {
			lastAccessed = &act.LastAccessed
		}
		rec.Recency = recencyScore(f.ModTime, lastAccessed, now, r.cfg)
		rec.FinalScore = r.cfg.Alpha*rec.Semantic + r.cfg.Beta*rec.Recency + r.cfg.Gamma*rec.CoAccess
		out = append(out, *rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FinalScore != out[j].FinalScore {
			return out[i].FinalScore > out[j].FinalScore
		}
		if out[i].Semantic != out[j].Semantic {
			return out[i].Semantic > out[j].Semantic
		}
		if out[i].Recency != out[j].Recency {
			return out[i].Recency > out[j].Recency
		}
		return out[i].File.ID < out[j].File.ID
	})
	if len(out) > k {
		out = out[:k]
	}

	r.log.Debug("recommend",
		zap.Int64("query_id", qf.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(out)))
	if len(out) > 0 {
		top := out[0]
		r.log.Debug("recommend top result",
			zap.Int64("id", top.File.ID),
			zap.Float64("final", top.FinalScore),
			zap.Float64("semantic", top.Semantic),
			zap.Float64("recency", top.Recency),
			zap.Float64("co_access", top.CoAccess))
	}
	return out, nil
}

// embeddingsByID loads every live embedding once per Recommend call, keyed
// by file id, so both the ANN query vector lookup and the on-demand
// semantic score for CoPair-only candidates draw from the same snapshot.
func (r *Ranker) embeddingsByID(ctx context.Context) (map[int64][]float32, error) {
	ids, vecs, err := r.store.ListLiveEmbeddings(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[int64][]float32, len(ids))
	for i, id := range ids {
		m[id] = vecs[i]
	}
	return m, nil
}

// recencyScore blends modification-time and access-time decay, both
// exponential with independently-configured half lives (spec.md §4.5):
// s_rec = 0.4*exp(-Δmod/modHalfLife) + 0.6*exp(-Δacc/accHalfLife).
// Deltas are fractional days, never truncated to whole days (P5). If no
// ActivityRecord exists, Δ_acc -> infinity and that term is 0.
func recencyScore(modTime time.Time, lastAccessed *time.Time, now time.Time, cfg config.Ranking) float64 {
	dMod := now.Sub(modTime).Hours() / 24
	modTerm := math.Exp(-dMod / halfLifeDays(cfg.ModifiedHalfLife.Duration()))

	accTerm := 0.0
	if lastAccessed != nil {
		dAcc := now.Sub(*lastAccessed).Hours() / 24
		accTerm = math.Exp(-dAcc / halfLifeDays(cfg.AccessedHalfLife.Duration()))
	}
	return vecmath.ClampUnit(0.4*modTerm + 0.6*accTerm)
}

func halfLifeDays(d time.Duration) float64 {
	days := d.Hours() / 24
	if days <= 0 {
		return 1
	}
	return days
}

// cooccurrenceScore maps a raw co-access count through a sigmoid centered
// at 0, saturating toward 1 as count grows (spec.md §4.5):
// s_co = 2 / (1 + exp(-n/5)) - 1.
func cooccurrenceScore(n int64) float64 {
	return 2/(1+math.Exp(-float64(n)/5)) - 1
}
