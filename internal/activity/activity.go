// Package activity implements the Activity component (spec.md §4.4):
// access logging and sliding-window co-occurrence tracking. Log must read
// the current co-occurrence window before recording its own access (so the
// file being logged isn't paired with itself), then bump every (id, other)
// pair still inside the window.
//
// Concurrency is a 256-shard mutex table keyed by file id, loosely grounded
// on vecgo's engine/sharded.go sharding convention, sized to keep
// contention low without per-id allocation.
package activity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/store"
)

const shardCount = 256

// Activity records accesses and maintains pairwise co-occurrence counts.
type Activity struct {
	store  store.Store
	window time.Duration
	log    *zap.Logger
	shards [shardCount]sync.Mutex
}

// New builds an Activity tracker. window is the co-occurrence sliding
// window (spec.md §4.4 default: 5 minutes, configurable).
func New(st store.Store, window time.Duration, log *zap.Logger) *Activity {
	if log == nil {
		log = zap.NewNop()
	}
	return &Activity{store: st, window: window, log: log}
}

// Summary is the small result spec.md §4.4 promises from Log.
type Summary struct {
	AccessCountAfter int64
	CopairsUpdated   int
}

// Log records an access to id at time now, and bumps the co-occurrence
// count for every file accessed within window before now (P10). Per-id
// critical section: the read of "who else is in the window" and the write
// of id's own last_accessed happen under the same shard lock, so a second
// concurrent Log for the same id cannot interleave with this one.
func (a *Activity) Log(ctx context.Context, id int64, now time.Time) (Summary, error) {
	shard := &a.shards[uint64(id)%shardCount]
	shard.Lock()
	defer shard.Unlock()

	since := now.Add(-a.window)
	inWindow, err := a.store.RecentlyAccessed(ctx, since, id)
	if err != nil {
		return Summary{}, err
	}

	if _, err := a.store.RecordAccess(ctx, id, now); err != nil {
		return Summary{}, err
	}

	for _, other := range inWindow {
		if err := a.store.BumpCoPair(ctx, id, other); err != nil {
			return Summary{}, err
		}
	}

	rec, err := a.store.GetActivity(ctx, id)
	if err != nil {
		return Summary{}, err
	}

	a.log.Debug("activity logged", zap.Int64("id", id), zap.Int("co_pairs", len(inWindow)))
	return Summary{AccessCountAfter: rec.AccessCount, CopairsUpdated: len(inWindow)}, nil
}
