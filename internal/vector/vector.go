// Package vector holds the float math shared by the index, the vectorizer
// and the scorer. Stored vectors are always unit length, so cosine
// similarity is a plain dot product.
package vector

import "math"

// Epsilon replaces a zero norm so a degenerate vector normalizes to zeros
// instead of NaNs.
const Epsilon = 1e-10

// Normalize returns a unit-length copy of v.
func Normalize(v []float32) []float32 {
	norm := Norm(v)
	if norm == 0 {
		norm = Epsilon
	}

	result := make([]float32, len(v))
	for i, x := range v {
		result[i] = float32(float64(x) / norm)
	}
	return result
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of two equal-length vectors, or 0 when the
// lengths differ.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine is the dot product of a and b after normalizing both.
func Cosine(a, b []float32) float64 {
	return Dot(Normalize(a), Normalize(b))
}
