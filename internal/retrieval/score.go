// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateVector reports a zero-norm embedding. Cosine similarity
// is undefined there; the guard keeps a division by zero from turning
// into NaN and garbage ordering.
var ErrDegenerateVector = errors.New("degenerate embedding vector: zero norm")

// Cosine returns the cosine similarity dot(a,b)/(‖a‖·‖b‖), always in
// [-1, 1]. A zero-norm input yields ErrDegenerateVector, never NaN.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	if na == 0 || nb == 0 {
		return 0, ErrDegenerateVector
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))

	// Clamp floating-point drift so callers can rely on the range.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}
