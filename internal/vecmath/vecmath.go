// Package vecmath provides the small set of vector operations the Index and
// Ranker need: L2 normalization and dot product, composed into cosine
// similarity. Grounded on the normalize-then-dot convention used by the
// vecgo pack member's distance package (NormalizeL2InPlace + Dot), stripped
// of its SIMD backend since this module has no such dependency to draw on.
package vecmath

import "math"

// NormalizeL2 returns an L2-normalized copy of v, and whether v had nonzero
// norm (a zero vector is returned unchanged when it cannot be normalized).
func NormalizeL2(v []float32) ([]float32, bool) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return append([]float32(nil), v...), false
	}
	inv := 1 / math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out, true
}

// Dot returns the dot product of a and b. Callers are responsible for
// ensuring equal length.
func Dot(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// CosineNormalized returns the dot product of two already-L2-normalized
// vectors, which equals their cosine similarity.
func CosineNormalized(a, b []float32) float64 {
	return Dot(a, b)
}

// Cosine normalizes a and b internally and returns their cosine similarity.
// Prefer storing pre-normalized vectors and calling CosineNormalized in
// hot paths (the Index does this); use Cosine for one-off comparisons.
func Cosine(a, b []float32) float64 {
	na, okA := NormalizeL2(a)
	nb, okB := NormalizeL2(b)
	if !okA || !okB {
		return 0
	}
	return Dot(na, nb)
}

// ClampUnit clamps x to [0, 1], mapping negative cosine similarities to 0
// per spec.md §4.5 ("Clamp to [0, 1]; negative cosines map to 0").
func ClampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
