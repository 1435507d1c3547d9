// Package app wires the five core components (spec.md §2: Store, Scanner,
// Index, Activity, Ranker) from a single Config, grounded on the teacher's
// index.Indexer constructor (internal/index/indexer.go's New(cfg) shape)
// generalized from one component to all five. No adapter (CLI, HTTP, MCP,
// TUI) constructs a core component directly — all of them call app.Open.
package app

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/BugBuster18/Agentic-File-Recommender/internal/activity"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/apperr"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/config"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/embedder"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/extract"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/index"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/rank"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/scan"
	"github.com/BugBuster18/Agentic-File-Recommender/internal/store"
)

// App is the assembled core, ready for any adapter to drive.
type App struct {
	Config   config.Config
	Store    store.Store
	Index    *index.Index
	Activity *activity.Activity
	Scanner  *scan.Scanner
	Ranker   *rank.Ranker
	Embedder embedder.Embedder
	Log      *zap.Logger
}

// Health is the Core API's health envelope (spec.md §6).
type Health struct {
	OK           bool `json:"ok"`
	ConfigLoaded bool `json:"config_loaded"`
	NFiles       int  `json:"n_files"`
	NEmbedded    int  `json:"n_embedded"`
	IndexDirty   bool `json:"index_dirty"`
}

// Open assembles every core component from cfg, opening (or creating) the
// Store and loading the persisted ANN index. Callers must Close the
// returned App.
func Open(cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.IOError, "create data dir", err)
	}

	st, err := store.Open(cfg.DBPath(), cfg.PoolSize, log)
	if err != nil {
		return nil, err
	}

	emb := resolveEmbedder(cfg)
	ext := extract.NewDefault()
	idx := index.New(st, cfg.IndexPath(), log)
	act := activity.New(st, cfg.Ranking.CooccurrenceWindow.Duration(), log)
	sc := scan.New(st, emb, ext, idx, cfg.Scan, log)
	rk := rank.New(st, idx, act, cfg.Ranking, log)

	if err := idx.Load(context.Background()); err != nil {
		st.Close()
		return nil, err
	}

	if err := sc.ReembedIfModelChanged(context.Background()); err != nil {
		st.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Store:    st,
		Index:    idx,
		Activity: act,
		Scanner:  sc,
		Ranker:   rk,
		Embedder: emb,
		Log:      log,
	}, nil
}

// resolveEmbedder picks the injected Embedder implementation (spec.md §6):
// Ollama when a model+URL is configured, the dependency-free Hash embedder
// otherwise (offline operation, tests).
func resolveEmbedder(cfg config.Config) embedder.Embedder {
	if cfg.Embeddings.OllamaURL == "" || cfg.Embeddings.Model == "" {
		return embedder.NewHash(cfg.Embeddings.Dim)
	}
	return embedder.NewOllama(cfg.Embeddings.OllamaURL, cfg.Embeddings.Model, cfg.Embeddings.Dim)
}

// Health reports the health envelope from spec.md §6.
func (a *App) Health(ctx context.Context) (Health, error) {
	n, err := a.Store.NumFiles(ctx)
	if err != nil {
		return Health{}, err
	}
	nEmb, err := a.Store.NumEmbedded(ctx)
	if err != nil {
		return Health{}, err
	}
	epoch, err := a.Store.ScanEpoch(ctx)
	if err != nil {
		return Health{}, err
	}
	return Health{
		OK:           true,
		ConfigLoaded: true,
		NFiles:       n,
		NEmbedded:    nEmb,
		IndexDirty:   a.Index.Stale(epoch),
	}, nil
}

// Close releases every resource the App holds.
func (a *App) Close() error {
	return a.Store.Close()
}
