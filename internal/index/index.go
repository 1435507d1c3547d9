// Package index implements the Index component (spec.md §4.3): a
// lazily-rebuilt approximate-nearest-neighbor index over live file
// embeddings. It is implemented here as an exact nearest-neighbor ("flat")
// search — spec.md §9's open question on ANN algorithm choice is resolved
// in favor of exactness for the corpus sizes this module targets, which
// also makes ranking fully deterministic (P8) without tie-breaking inside
// the index itself.
//
// Persistence format is grounded on vecgo's engine/snapshot.go
// magic+version+payload convention, simplified to a single gob-encoded
// payload since a flat index has no sections to lay out separately.
package index

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/apperr"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/store"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/vecmath"
)

var magic = [4]byte{'A', 'F', 'R', 'I'}

const formatVersion = uint32(1)

// Match is one ANN search result.
type Match struct {
	ID    int64
	Score float64 // cosine similarity in [0, 1], clamped per vecmath.ClampUnit
}

// snapshot is the gob-encoded payload written to disk: pre-normalized
// vectors keyed by id, plus the epoch they were built from.
type snapshot struct {
	Epoch int64
	IDs   []int64
	Vecs  [][]float32
}

// Index serves k-nearest-neighbor queries over live file embeddings,
// rebuilding from the Store only when it has been marked dirty and a query
// actually needs current results (spec.md §4.3's "ensure_current").
type Index struct {
	store store.Store
	path  string
	log   *zap.Logger

	mu      sync.RWMutex
	ids     []int64
	vecs    [][]float32 // L2-normalized
	dirty   bool
	builtAt int64 // epoch the served snapshot reflects
}

// New constructs an Index. path is where the on-disk snapshot lives;
// pass "" to disable persistence (rebuild-from-Store only).
func New(st store.Store, path string, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{store: st, path: path, log: log, dirty: true}
}

// MarkDirty flags the served index as stale. The next Query rebuilds before
// answering. Each caller that finds the index stale runs its own rebuild;
// concurrent rebuilds are not merged into one. A rebuild swaps in its new
// snapshot under the lock only once it is fully loaded, so readers never
// see a partial one.
func (idx *Index) MarkDirty() {
	idx.mu.Lock()
	idx.dirty = true
	idx.mu.Unlock()
}

// Stale reports whether the served snapshot is out of date with respect to
// currentEpoch, without triggering a rebuild — used for health reporting
// (spec.md §6's index_dirty field).
func (idx *Index) Stale(currentEpoch int64) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dirty || idx.builtAt != currentEpoch
}

// EnsureCurrent rebuilds the served snapshot from the Store if it is dirty
// or its epoch is behind the Store's current scan epoch.
func (idx *Index) EnsureCurrent(ctx context.Context) error {
	idx.mu.RLock()
	needsRebuild := idx.dirty
	builtAt := idx.builtAt
	idx.mu.RUnlock()

	if !needsRebuild {
		epoch, err := idx.store.ScanEpoch(ctx)
		if err != nil {
			return err
		}
		if epoch == builtAt {
			return nil
		}
	}
	return idx.rebuild(ctx)
}

func (idx *Index) rebuild(ctx context.Context) error {
	epoch, err := idx.store.ScanEpoch(ctx)
	if err != nil {
		return err
	}
	ids, vecs, err := idx.store.ListLiveEmbeddings(ctx)
	if err != nil {
		return err
	}

	normed := make([][]float32, len(vecs))
	for i, v := range vecs {
		n, _ := vecmath.NormalizeL2(v)
		normed[i] = n
	}

	idx.mu.Lock()
	idx.ids = ids
	idx.vecs = normed
	idx.dirty = false
	idx.builtAt = epoch
	idx.mu.Unlock()

	idx.log.Info("index rebuilt", zap.Int64("epoch", epoch), zap.Int("vectors", len(ids)))

	if idx.path != "" {
		if err := idx.save(); err != nil {
			idx.log.Warn("index snapshot save failed", zap.Error(err))
		}
	}
	return nil
}

// Query returns up to k nearest neighbors of vector by cosine similarity,
// excluding excludeID (P7: self-exclusion), ensuring the index is current
// first (spec.md §4.3). Returns an empty result, without error, if the
// index holds fewer than two live embeddings.
func (idx *Index) Query(ctx context.Context, vector []float32, k int, excludeID int64) ([]Match, error) {
	if err := idx.EnsureCurrent(ctx); err != nil {
		return nil, err
	}
	qn, ok := vecmath.NormalizeL2(vector)
	if !ok {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	// spec.md §4.3: fewer than two live embeddings can never yield a
	// meaningful neighbor (there is nothing left to compare against once the
	// query itself is excluded), so query returns empty rather than the
	// solitary embedding.
	if len(idx.ids) < 2 {
		return nil, nil
	}

	matches := make([]Match, 0, len(idx.ids))
	for i, id := range idx.ids {
		if id == excludeID {
			continue
		}
		sim := vecmath.ClampUnit(vecmath.CosineNormalized(qn, idx.vecs[i]))
		matches = append(matches, Match{ID: id, Score: sim})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID // deterministic tie-break (P8)
	})
	// spec.md:93: "k is clamped to [0, number of indexed items]".
	if k < 0 {
		k = 0
	}
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Load restores the on-disk snapshot, falling back to a rebuild from the
// Store on any corruption or absence (spec.md §4.3's "must never surface a
// decode failure to callers as a query failure").
func (idx *Index) Load(ctx context.Context) error {
	if idx.path == "" {
		return idx.rebuild(ctx)
	}
	data, err := os.ReadFile(idx.path)
	if err != nil {
		idx.log.Info("no index snapshot, rebuilding", zap.String("path", idx.path))
		return idx.rebuild(ctx)
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		idx.log.Warn("index snapshot corrupt, rebuilding", zap.Error(err))
		return idx.rebuild(ctx)
	}

	idx.mu.Lock()
	idx.ids = snap.IDs
	idx.vecs = snap.Vecs
	idx.builtAt = snap.Epoch
	idx.dirty = false
	idx.mu.Unlock()
	return nil
}

func (idx *Index) save() error {
	idx.mu.RLock()
	snap := snapshot{Epoch: idx.builtAt, IDs: idx.ids, Vecs: idx.vecs}
	idx.mu.RUnlock()

	data, err := encodeSnapshot(snap)
	if err != nil {
		return apperr.Wrap(apperr.IndexError, "encode snapshot", err)
	}
	tmp := idx.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Wrap(apperr.IOError, "write snapshot tmp", err)
	}
	if err := os.Rename(tmp, idx.path); err != nil {
		return apperr.Wrap(apperr.IOError, "rename snapshot", err)
	}
	return nil
}

func encodeSnapshot(snap snapshot) ([]byte, error) {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(snap); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}

	var out bytes.Buffer
	out.Write(magic[:])
	binary.Write(&out, binary.BigEndian, formatVersion)
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func decodeSnapshot(data []byte) (snapshot, error) {
	if len(data) < 8 || !bytes.Equal(data[:4], magic[:]) {
		return snapshot{}, apperr.New(apperr.DecodeError, "bad snapshot magic")
	}
	version := binary.BigEndian.Uint32(data[4:8])
	if version != formatVersion {
		return snapshot{}, apperr.New(apperr.DecodeError, fmt.Sprintf("unsupported snapshot version %d", version))
	}
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(data[8:])).Decode(&snap); err != nil {
		return snapshot{}, apperr.Wrap(apperr.DecodeError, "gob decode snapshot", err)
	}
	return snap, nil
}
