// Package scan implements the Scanner component (spec.md §4.2): the
// incremental filesystem walk that keeps the Store's file registry, content
// snippets, and embeddings current, and marks the ANN Index dirty whenever
// it writes something the Index depends on.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/apperr"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/config"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/embedder"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/extract"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/store"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/walker"
)

// Dirtyable is the subset of the Index component the Scanner needs: a
// signal that the served ANN index no longer reflects the Store.
type Dirtyable interface {
	MarkDirty()
}

// metaEmbeddingModel is the Store's meta key recording the identity of the
// embedding model that produced the currently stored vectors.
const metaEmbeddingModel = "embedding_model"

// Failure records one file the Scanner could not process without aborting
// the rest of the walk (spec.md §4.2: "a single file's failure does not
// abort the scan").
type Failure struct {
	Path string
	Err  error
}

// Report summarizes one call to Scan. RunID correlates this walk's log
// lines across the whole call, since concurrent scans of disjoint roots
// interleave in the log stream.
type Report struct {
	RunID      string
	Root       string
	Added      int
	Updated    int
	Unchanged  int
	Tombstoned int
	Failures   []Failure
}

// Scanner walks configured roots and keeps the Store current.
type Scanner struct {
	store     store.Store
	embedder  embedder.Embedder
	extractor extract.TextExtractor
	index     Dirtyable
	cfg       config.Scan
	log       *zap.Logger

	mu     sync.Mutex
	inProc map[string]*inflight // root -> in-progress scan, for coalescing
}

type inflight struct {
	done chan struct{}
	rpt  *Report
	err  error
}

// New builds a Scanner. index may be nil if no ANN index is wired.
func New(st store.Store, emb embedder.Embedder, ext extract.TextExtractor, idx Dirtyable, cfg config.Scan, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{
		store:     st,
		embedder:  emb,
		extractor: ext,
		index:     idx,
		cfg:       cfg,
		log:       log,
		inProc:    make(map[string]*inflight),
	}
}

// Scan walks root and reconciles the Store with the filesystem. Concurrent
// calls for the same root coalesce onto a single walk (spec.md §5); calls
// for disjoint roots run independently and in parallel.
func (sc *Scanner) Scan(ctx context.Context, root string) (*Report, error) {
	sc.mu.Lock()
	if f, ok := sc.inProc[root]; ok {
		sc.mu.Unlock()
		<-f.done
		return f.rpt, f.err
	}
	f := &inflight{done: make(chan struct{})}
	sc.inProc[root] = f
	sc.mu.Unlock()

	f.rpt, f.err = sc.scanOnce(ctx, root)
	close(f.done)

	sc.mu.Lock()
	delete(sc.inProc, root)
	sc.mu.Unlock()

	return f.rpt, f.err
}

type pendingEmbed struct {
	id      int64
	snippet string
}

func (sc *Scanner) scanOnce(ctx context.Context, root string) (*Report, error) {
	runID := uuid.NewString()
	rpt := &Report{RunID: runID, Root: root}
	log := sc.log.With(zap.String("run_id", runID), zap.String("root", root))
	seen := make(map[string]bool)
	anyWrite := false

	files, errs := walker.Walk(root, walker.Options{
		AllowedExts:    extSet(sc.cfg.AllowedExts),
		IgnorePatterns: sc.cfg.IgnorePatterns,
		MaxFileBytes:   sc.cfg.MaxFileBytes,
	})

	batchSize := sc.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	var pending []pendingEmbed

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		texts := make([]string, len(pending))
		for i, p := range pending {
			texts[i] = p.snippet
		}
		vecs, err := sc.embedder.Embed(ctx, texts)
		if err != nil {
			return apperr.Wrap(apperr.EmbedderErr, "embed batch", err)
		}
		for i, p := range pending {
			if err := sc.store.PutContent(ctx, p.id, p.snippet, vecs[i]); err != nil {
				return err
			}
		}
		anyWrite = true
		pending = pending[:0]
		return nil
	}

loop:
	for {
		select {
		case <-ctx.Done():
			return rpt, apperr.Wrap(apperr.Cancelled, "scan cancelled", ctx.Err())
		case fi, ok := <-files:
			if !ok {
				break loop
			}
			seen[fi.Path] = true
			if err := sc.processFile(ctx, fi, rpt, &pending); err != nil {
				log.Warn("scan file failed", zap.String("path", fi.Path), zap.Error(err))
				rpt.Failures = append(rpt.Failures, Failure{Path: fi.Path, Err: err})
				continue
			}
			if len(pending) >= batchSize {
				if err := flush(); err != nil {
					log.Warn("embed batch failed", zap.Error(err))
					rpt.Failures = append(rpt.Failures, Failure{Path: "<batch>", Err: err})
					pending = pending[:0]
				}
			}
		}
	}
	if err := flush(); err != nil {
		log.Warn("embed batch failed", zap.Error(err))
		rpt.Failures = append(rpt.Failures, Failure{Path: "<batch>", Err: err})
	}

	select {
	case err, ok := <-errs:
		if ok && err != nil {
			return rpt, apperr.Wrap(apperr.IOError, "walk "+root, err)
		}
	default:
	}

	tombstoned, err := sc.store.TombstoneMissing(ctx, root, seen)
	if err != nil {
		return rpt, err
	}
	rpt.Tombstoned = len(tombstoned)
	if len(tombstoned) > 0 {
		anyWrite = true
	}

	if anyWrite {
		if _, err := sc.store.BumpScanEpoch(ctx); err != nil {
			return rpt, err
		}
		if sc.index != nil {
			sc.index.MarkDirty()
		}
	}

	log.Info("scan complete",
		zap.Int("added", rpt.Added),
		zap.Int("updated", rpt.Updated),
		zap.Int("unchanged", rpt.Unchanged),
		zap.Int("tombstoned", rpt.Tombstoned),
		zap.Int("failures", len(rpt.Failures)))

	return rpt, nil
}

// processFile implements spec.md §4.2 steps 2-4 for one candidate file: a
// cheap mtime/size pre-check before paying for a content hash, then
// hash/extract/enqueue-for-embedding only when something actually changed.
func (sc *Scanner) processFile(ctx context.Context, fi walker.FileInfo, rpt *Report, pending *[]pendingEmbed) error {
	existing, err := sc.store.GetFileByPath(ctx, fi.Path)
	if err != nil {
		return err
	}

	stat, err := os.Stat(fi.Path)
	if err != nil {
		return apperr.Wrap(apperr.IOError, "stat "+fi.Path, err)
	}
	modTime := stat.ModTime()

	if existing != nil && !existing.Tombstoned && existing.SizeBytes == fi.Size && existing.ModTime.Equal(modTime.UTC()) {
		rpt.Unchanged++
		return nil
	}

	data, err := os.ReadFile(fi.Path)
	if err != nil {
		return apperr.Wrap(apperr.IOError, "read "+fi.Path, err)
	}
	hash := sha256Hex(data)

	isNew := existing == nil
	mimeType, text := sc.extractor.Extract(fi.Path, data, sc.cfg.SnippetBytes)

	id, changed, err := sc.store.UpsertFile(ctx, fi.Path, fi.Size, modTime, mimeType, hash)
	if err != nil {
		return err
	}

	if isNew {
		rpt.Added++
	} else if changed {
		rpt.Updated++
	} else {
		rpt.Unchanged++
		return nil
	}

	if text == nil {
		return sc.store.PutContent(ctx, id, "", nil)
	}
	*pending = append(*pending, pendingEmbed{id: id, snippet: *text})
	return nil
}

// ReembedIfModelChanged recomputes every live file's embedding when the
// configured Embedder no longer matches the one that produced the vectors
// currently in the Store: two models' outputs live in different vector
// spaces and are not comparable, so a change silently poisons every
// cosine-similarity score unless the whole corpus is re-embedded. Grounded
// on the teacher's indexer model-change check (internal/index/indexer.go's
// GetMeta("embedding_model")/DeleteAllChunks pair): where the teacher
// forced a full re-index by deleting stored chunks and letting the next
// walk regenerate them, this recomputes directly from the snippets already
// on disk, since re-walking the filesystem buys nothing when only the
// embedding step is invalid.
func (sc *Scanner) ReembedIfModelChanged(ctx context.Context) error {
	modelID := sc.embedder.ID()
	last, err := sc.store.GetMeta(ctx, metaEmbeddingModel)
	if err != nil {
		return err
	}
	if last != "" && last != modelID {
		sc.log.Info("embedding model changed, re-embedding all files",
			zap.String("previous", last), zap.String("current", modelID))
		if err := sc.reembedAll(ctx); err != nil {
			return err
		}
	}
	return sc.store.SetMeta(ctx, metaEmbeddingModel, modelID)
}

func (sc *Scanner) reembedAll(ctx context.Context) error {
	ids, snippets, err := sc.store.ListLiveSnippets(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	batchSize := sc.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		vecs, err := sc.embedder.Embed(ctx, snippets[start:end])
		if err != nil {
			return apperr.Wrap(apperr.EmbedderErr, "re-embed batch", err)
		}
		for i, id := range ids[start:end] {
			if err := sc.store.PutContent(ctx, id, snippets[start+i], vecs[i]); err != nil {
				return err
			}
		}
	}

	if _, err := sc.store.BumpScanEpoch(ctx); err != nil {
		return err
	}
	if sc.index != nil {
		sc.index.MarkDirty()
	}
	sc.log.Info("re-embed complete", zap.Int("files", len(ids)))
	return nil
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func extSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[e] = true
	}
	return set
}
