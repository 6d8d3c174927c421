// Package vecmath holds the vector and geo arithmetic used for matching,
// kept independent of any storage engine.
package vecmath

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDimensionMismatch = errors.New("vecmath: dimension mismatch")
	ErrEmptyVector       = errors.New("vecmath: empty vector")
	ErrZeroMagnitude     = errors.New("vecmath: zero-magnitude vector")
)

// Dot returns the dot product of a and b.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Cosine returns dot(a,b) / (|a|*|b|). The result is not clamped.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrEmptyVector
	}
	var dot, na2, nb2 float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na2 += x * x
		nb2 += y * y
	}
	if na2 == 0 || nb2 == 0 {
		return 0, ErrZeroMagnitude
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// Normalized is a vector paired with its precomputed norm, so repeated
// cosine computations against one seed avoid recomputing |a|.
type Normalized struct {
	Vec  []float32
	Norm float64
}

func Normalize(v []float32) (Normalized, error) {
	if len(v) == 0 {
		return Normalized{}, ErrEmptyVector
	}
	n := Norm(v)
	if n == 0 {
		return Normalized{}, ErrZeroMagnitude
	}
	return Normalized{Vec: v, Norm: n}, nil
}

// CosineTo returns the cosine similarity between the receiver and b.
func (n Normalized) CosineTo(b []float32) (float64, error) {
	dot, err := Dot(n.Vec, b)
	if err != nil {
		return 0, err
	}
	nb := Norm(b)
	if nb == 0 {
		return 0, ErrZeroMagnitude
	}
	return dot / (n.Norm * nb), nil
}
