// Package testutil provides deterministic fixtures for tests and benchmarks:
// seeded random matrices and tensors, orthonormal bases, and a minimal
// in-memory model with hookable layers.
package testutil

import (
	"log/slog"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/repsim/tensor"
)

// DiscardLogger returns a logger that drops every record, for tests that
// deliberately trigger logged failure paths.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Float64 returns a pseudo-random number in [0.0, 1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// GaussianMatrix returns an n×d matrix of standard normal draws.
func (r *RNG) GaussianMatrix(n, d int) *mat.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, n*d)
	for i := range data {
		data[i] = r.rand.NormFloat64()
	}
	return mat.NewDense(n, d, data)
}

// GaussianTensor4 returns a [b, c, h, w] tensor of standard normal draws.
func (r *RNG) GaussianTensor4(b, c, h, w int) *tensor.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := tensor.New(b, c, h, w)
	data := t.Data()
	for i := range data {
		data[i] = r.rand.NormFloat64()
	}
	return t
}

// UniformTensor4 returns a [b, c, h, w] tensor of draws in [0, 1), the valid
// pixel range for image inputs.
func (r *RNG) UniformTensor4(b, c, h, w int) *tensor.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := tensor.New(b, c, h, w)
	data := t.Data()
	for i := range data {
		data[i] = r.rand.Float64()
	}
	return t
}

// OrthonormalMatrix returns an n×n matrix with orthonormal columns, the Q
// factor of a Gaussian matrix.
func (r *RNG) OrthonormalMatrix(n int) *mat.Dense {
	g := r.GaussianMatrix(n, n)
	var qr mat.QR
	qr.Factorize(g)
	var q mat.Dense
	qr.QTo(&q)
	return &q
}

// RandomRotation is an alias for OrthonormalMatrix, named for its use as an
// orthogonal transformation in invariance tests.
func (r *RNG) RandomRotation(n int) *mat.Dense {
	return r.OrthonormalMatrix(n)
}
