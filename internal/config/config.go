// Package config loads the adapter-level config.yaml described in
// spec.md §6 and hands a plain struct to every core constructor. There is
// no process-wide singleton: callers load once and pass the result down.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config.yaml can spell durations as
// human strings ("5m", "720h") the way the rest of the ecosystem does,
// rather than as raw nanosecond integers. A bare integer is read as seconds.
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var n int64
	if err := unmarshal(&n); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Scan holds filesystem-walk settings.
type Scan struct {
	Roots          []string `yaml:"roots"`
	AllowedExts    []string `yaml:"allowed_extensions"`
	IgnorePatterns []string `yaml:"ignore_patterns"`
	MaxFileBytes   int64    `yaml:"max_file_bytes"`
	SnippetBytes   int      `yaml:"snippet_bytes"`
	BatchSize      int      `yaml:"embed_batch_size"`
}

// Embeddings holds the injected Embedder's configuration.
type Embeddings struct {
	Model     string `yaml:"model"`
	Dim       int    `yaml:"dim"`
	OllamaURL string `yaml:"ollama_url"`
}

// Ranking holds the Ranker's weights and decay/window overrides.
type Ranking struct {
	Alpha              float64  `yaml:"alpha"`
	Beta               float64  `yaml:"beta"`
	Gamma              float64  `yaml:"gamma"`
	ModifiedHalfLife   Duration `yaml:"modified_half_life"`
	AccessedHalfLife   Duration `yaml:"accessed_half_life"`
	CooccurrenceWindow Duration `yaml:"cooccurrence_window"`
}

// Config is the full adapter-level configuration.
type Config struct {
	DataDir    string     `yaml:"data_dir"`
	PoolSize   int        `yaml:"pool_size"`
	Scan       Scan       `yaml:"scan"`
	Embeddings Embeddings `yaml:"embeddings"`
	Ranking    Ranking    `yaml:"ranking"`
}

// Default returns a Config with every default named in spec.md.
func Default() Config {
	return Config{
		DataDir:  ".afr",
		PoolSize: 4,
		Scan: Scan{
			Roots:          nil,
			AllowedExts:    []string{"txt", "md", "go", "py", "js", "ts", "json", "yaml", "yml"},
			IgnorePatterns: []string{".git", "node_modules", "vendor", "__pycache__", ".afr"},
			MaxFileBytes:   1 << 20,
			SnippetBytes:   8192,
			BatchSize:      32,
		},
		Embeddings: Embeddings{
			Model:     "nomic-embed-text",
			Dim:       384,
			OllamaURL: "http://localhost:11434",
		},
		Ranking: Ranking{
			Alpha:              0.6,
			Beta:               0.2,
			Gamma:              0.15,
			ModifiedHalfLife:   Duration(30 * 24 * time.Hour),
			AccessedHalfLife:   Duration(15 * 24 * time.Hour),
			CooccurrenceWindow: Duration(5 * time.Minute),
		},
	}
}

// Load reads path as YAML and overlays it on Default(). A missing file is
// not an error — Default() alone is a valid, runnable configuration.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate mirrors the original implementation's required-keys check
// (app.py: "scan", "embeddings", "ranking" must all be present) translated
// to Go's zero-value semantics, plus the invariants the core actually
// depends on.
func (c Config) Validate() error {
	if len(c.Scan.AllowedExts) == 0 {
		return fmt.Errorf("config: scan.allowed_extensions must not be empty")
	}
	if c.Scan.SnippetBytes <= 0 {
		return fmt.Errorf("config: scan.snippet_bytes must be positive")
	}
	if c.Embeddings.Dim <= 0 {
		return fmt.Errorf("config: embeddings.dim must be positive")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("config: pool_size must be positive")
	}
	return nil
}

// DBPath returns the path to the SQLite database file under DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "afr.db")
}

// IndexPath returns the path to the persisted ANN index file under DataDir.
func (c Config) IndexPath() string {
	return filepath.Join(c.DataDir, "ann.idx")
}

// AllowedExtSet returns the allow-list as a set for O(1) lookup.
func (c Config) AllowedExtSet() map[string]bool {
	set := make(map[string]bool, len(c.Scan.AllowedExts))
	for _, e := range c.Scan.AllowedExts {
		set[e] = true
	}
	return set
}
