// Package embedding provides a deterministic stand-in for an embedding
// service. Sample data and query vectors share seeds, which is how the
// expected top match of the hybrid search is established.
package embedding

import (
	"math"
	"math/rand"
)

// Generator produces seed-keyed unit-length vectors of a fixed dimension.
type Generator struct {
	dimension int
}

// NewGenerator creates a Generator for the given vector dimension.
func NewGenerator(dimension int) *Generator {
	return &Generator{dimension: dimension}
}

// Dimension returns the length of generated vectors.
func (g *Generator) Dimension() int {
	return g.dimension
}

// Generate returns a deterministic unit-length (L2 norm 1) vector for the
// given seed. Identical (seed, dimension) pairs always yield identical
// vectors; no external services are involved.
func (g *Generator) Generate(seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))

	raw := make([]float64, g.dimension)
	var sumSquares float64
	for i := range raw {
		v := rng.NormFloat64()
		raw[i] = v
		sumSquares += v * v
	}

	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		norm = 1
	}

	vec := make([]float32, g.dimension)
	for i, v := range raw {
		vec[i] = float32(v / norm)
	}
	return vec
}
