// Package embedder defines the injected Embedder capability
// (spec.md §6: "Embedder(texts[]) -> float[n][d], deterministic for
// identical input; vectors need not be normalized — the core normalizes").
package embedder

import "context"

// Embedder computes embedding vectors for a batch of texts. Implementations
// must return vectors in the same order and count as the input texts, and
// must be deterministic for identical input.
type Embedder interface {
	// Embed returns one vector per text, same order, same length (Dim()).
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dim returns the fixed dimension d of vectors this Embedder produces.
	Dim() int
	// ID returns a stable identifier for the model+configuration producing
	// these vectors. Two embeddings are only comparable in the same vector
	// space when they share an ID; the Scanner uses this to detect a model
	// change and force a re-embed.
	ID() string
}

// EmbedSingle is a convenience wrapper for embedding one text.
func EmbedSingle(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	return vecs[0], nil
}
