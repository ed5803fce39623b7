package lin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestThinSVDReconstruction(t *testing.T) {
	a := mat.NewDense(4, 3, []float64{
		1, 2, 0,
		0, 1, -1,
		3, 0, 2,
		-1, 1, 1,
	})

	d, err := ThinSVD(a)
	require.NoError(t, err)
	require.Len(t, d.S, 3)

	// Reconstruct U·diag(S)·Vᵀ.
	var us mat.Dense
	us.Mul(d.U, diag(d.S))
	var rec mat.Dense
	rec.Mul(&us, d.V.T())

	assert.InDelta(t, 0, mat.Norm(sub(a, &rec), 2), 1e-10)

	// Singular values descending.
	for i := 1; i < len(d.S); i++ {
		assert.LessOrEqual(t, d.S[i], d.S[i-1])
	}
}

func TestThinSVDRank(t *testing.T) {
	// Rank-1 matrix: outer product of two vectors.
	a := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		2, 4, 6,
		3, 6, 9,
	})
	d, err := ThinSVD(a)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Rank(3, 3))

	d.Truncate(1)
	assert.Len(t, d.S, 1)
	_, c := d.U.Dims()
	assert.Equal(t, 1, c)
}

func TestThinQR(t *testing.T) {
	a := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 1,
		0, 2,
		2, -1,
	})

	d := ThinQR(a)
	qr, qc := d.Q.Dims()
	assert.Equal(t, 4, qr)
	assert.Equal(t, 2, qc)

	// QᵀQ = I.
	var qtq mat.Dense
	qtq.Mul(d.Q.T(), d.Q)
	assert.InDelta(t, 1, qtq.At(0, 0), 1e-12)
	assert.InDelta(t, 1, qtq.At(1, 1), 1e-12)
	assert.InDelta(t, 0, qtq.At(0, 1), 1e-12)

	// Q·R = A.
	var rec mat.Dense
	rec.Mul(d.Q, d.R)
	assert.InDelta(t, 0, mat.Norm(sub(a, &rec), 2), 1e-12)

	assert.False(t, d.RSingular())
}

func TestRSingularZeroColumn(t *testing.T) {
	a := mat.NewDense(3, 2, []float64{
		1, 0,
		2, 0,
		3, 0,
	})
	assert.True(t, ThinQR(a).RSingular())
}

func TestCenter(t *testing.T) {
	a := mat.NewDense(3, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
	})
	c := Center(a)
	for j := 0; j < 2; j++ {
		var sum float64
		for i := 0; i < 3; i++ {
			sum += c.At(i, j)
		}
		assert.InDelta(t, 0, sum, 1e-12)
	}
	// Centering is idempotent.
	assert.InDelta(t, 0, mat.Norm(sub(c, Center(c)), 2), 1e-12)
}

func TestNormalize(t *testing.T) {
	a := mat.NewDense(3, 2, []float64{
		4, -1,
		0, 7,
		2, 3,
	})
	n := Normalize(a)
	assert.InDelta(t, 1, mat.Norm(n, 2), 1e-12)
}

func TestNuclearNorm(t *testing.T) {
	// Diagonal matrix: nuclear norm is the sum of absolute diagonal values.
	a := mat.NewDense(3, 3, []float64{
		3, 0, 0,
		0, -2, 0,
		0, 0, 1,
	})
	nuc, err := NuclearNorm(a)
	require.NoError(t, err)
	assert.InDelta(t, 6, nuc, 1e-12)
}

func diag(s []float64) *mat.Dense {
	n := len(s)
	d := mat.NewDense(n, n, nil)
	for i, v := range s {
		d.Set(i, i, v)
	}
	return d
}

func sub(a, b mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Sub(a, b)
	return &out
}
