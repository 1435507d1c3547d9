package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeL2(t *testing.T) {
	out, ok := NormalizeL2([]float32{3, 4})
	require.True(t, ok)
	var sumSq float64
	for _, x := range out {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
}

func TestNormalizeL2Zero(t *testing.T) {
	out, ok := NormalizeL2([]float32{0, 0, 0})
	assert.False(t, ok)
	assert.Equal(t, []float32{0, 0, 0}, out)
}

func TestCosineIdentical(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-6)
}

func TestCosineOrthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestClampUnit(t *testing.T) {
	assert.Equal(t, 0.0, ClampUnit(-0.5))
	assert.Equal(t, 1.0, ClampUnit(1.5))
	assert.Equal(t, 0.3, ClampUnit(0.3))
}
