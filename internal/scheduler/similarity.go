package scheduler

import "math"

// Cosine returns the cosine similarity of two feature vectors, in
// [-1, 1]. A zero-magnitude vector on either side yields 0.0 rather than
// an undefined result.
func Cosine(a, b FeatureVector) float64 {
	var dot, ma, mb float64
	for i := 0; i < featureDim; i++ {
		dot += a[i] * b[i]
		ma += a[i] * a[i]
		mb += b[i] * b[i]
	}
	if ma == 0 || mb == 0 {
		return 0
	}
	return dot / (math.Sqrt(ma) * math.Sqrt(mb))
}
