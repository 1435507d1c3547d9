package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// Hash is a dependency-free, deterministic Embedder: each text is split
// into whitespace shingles and hashed into a fixed-size bag-of-tokens
// vector. It carries no real semantic meaning — it exists so the core and
// its tests can exercise the full scan/index/rank pipeline without a
// running model server, per spec.md §6's "model choice is a configuration
// concern" (this is one concrete, swappable choice).
type Hash struct {
	dim int
}

// NewHash creates a Hash embedder producing vectors of the given dimension.
func NewHash(dim int) *Hash {
	return &Hash{dim: dim}
}

func (e *Hash) Dim() int { return e.dim }

func (e *Hash) ID() string { return fmt.Sprintf("hash:%d", e.dim) }

func (e *Hash) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embedOne(t)
	}
	return out, nil
}

func (e *Hash) embedOne(text string) []float32 {
	v := make([]float32, e.dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		idx := int(h.Sum32()) % e.dim
		if idx < 0 {
			idx += e.dim
		}
		v[idx]++
	}
	return v
}

var _ Embedder = (*Hash)(nil)
