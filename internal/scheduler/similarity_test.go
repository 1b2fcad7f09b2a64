package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineIdenticalVectors(t *testing.T) {
	v := FeatureVector{1, 0.5, 0.25, 1}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	a := FeatureVector{1, 0, 0, 0}
	b := FeatureVector{0, 1, 0, 0}
	assert.InDelta(t, 0.0, Cosine(a, b), 1e-9)
}

func TestCosineZeroVectorYieldsZero(t *testing.T) {
	var zero FeatureVector
	v := FeatureVector{1, 1, 1, 1}
	assert.Equal(t, 0.0, Cosine(zero, v))
	assert.Equal(t, 0.0, Cosine(v, zero))
	assert.Equal(t, 0.0, Cosine(zero, zero))
}

func TestCosineScaleInvariant(t *testing.T) {
	a := FeatureVector{0.2, 0.4, 0.6, 0.8}
	b := FeatureVector{0.1, 0.2, 0.3, 0.4}
	assert.InDelta(t, 1.0, Cosine(a, b), 1e-9)
}

func TestCosineBoundedByOne(t *testing.T) {
	a := FeatureVector{1, 0.3, 0.9, 0.1}
	b := FeatureVector{0.2, 1, 0.4, 0.7}
	score := Cosine(a, b)
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, -1.0)
}
