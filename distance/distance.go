package distance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/repsim/cca"
	"github.com/hupe1980/repsim/internal/lin"
)

// ErrInsufficientData is returned by the debiased CKA estimator when fewer
// than three data points are supplied; the correction divides by (N−1)(N−2).
var ErrInsufficientData = errors.New("distance: debiased CKA needs at least 3 data points")

// SVCCA computes the SVCCA distance (Raghu et al. 2017): each matrix is first
// reduced to the right-singular directions holding acceptRate of the total
// singular value mass, then CCA is run on the reduced matrices.
//
// The result is 1 − mean canonical correlation over the smaller reduced side,
// in [0, 1]. acceptRate is typically 0.99; at most all and at least one
// direction is retained per matrix.
func SVCCA(x, y *mat.Dense, acceptRate float64, backend cca.Backend) (float64, error) {
	xr, err := svdReduction(x, acceptRate)
	if err != nil {
		return 0, err
	}
	yr, err := svdReduction(y, acceptRate)
	if err != nil {
		return 0, err
	}
	_, dx := xr.Dims()
	_, dy := yr.Dims()
	div := min(dx, dy)

	res, err := cca.CCA(xr, yr, backend)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, d := range res.Diag {
		sum += d
	}
	return 1 - sum/float64(div), nil
}

// svdReduction projects a onto the smallest prefix of right-singular
// directions whose cumulative singular value mass reaches acceptRate.
func svdReduction(a *mat.Dense, acceptRate float64) (*mat.Dense, error) {
	d, err := lin.ThinSVD(a)
	if err != nil {
		return nil, err
	}
	var full float64
	for _, s := range d.S {
		full += math.Abs(s)
	}
	num := 0
	var cum float64
	for _, s := range d.S {
		cum += math.Abs(s)
		if cum/full < acceptRate {
			num++
		}
	}
	if num < 1 {
		num = 1
	}

	r, _ := a.Dims()
	vr, _ := d.V.Dims()
	out := mat.NewDense(r, num, nil)
	out.Mul(a, d.V.Slice(0, vr, 0, num))
	return out, nil
}

// PWCCA computes the projection-weighted CCA distance (Morcos et al. 2018):
// canonical correlations are weighted by how much each canonical direction
// contributes to reconstructing x.
//
// The weighting makes PWCCA asymmetric: PWCCA(x, y) need not equal
// PWCCA(y, x).
func PWCCA(x, y *mat.Dense, backend cca.Backend) (float64, error) {
	res, err := cca.CCA(x, y, backend)
	if err != nil {
		return 0, err
	}

	var xa mat.Dense
	xa.Mul(x, res.A)
	r, k := xa.Dims()
	alpha := make([]float64, k)
	var total float64
	for j := 0; j < k; j++ {
		var s float64
		for i := 0; i < r; i++ {
			s += math.Abs(xa.At(i, j))
		}
		alpha[j] = s
		total += s
	}

	var dist float64 = 1
	for j := 0; j < k; j++ {
		dist -= alpha[j] / total * res.Diag[j]
	}
	return dist, nil
}

// LinearCKA computes the linear Centered Kernel Alignment distance
// (Kornblith et al. 2019). With reduceBias the unbiased HSIC estimator is
// applied, which helps when D is small relative to N but needs N >= 3 and can
// push the result slightly below zero; that is expected estimator behavior,
// not an error.
func LinearCKA(x, y *mat.Dense, reduceBias bool) (float64, error) {
	nx, _ := x.Dims()
	ny, _ := y.Dims()
	if nx != ny {
		return 0, &cca.ShapeError{RowsX: nx, RowsY: ny}
	}
	if reduceBias && nx < 3 {
		return 0, fmt.Errorf("%w: got %d", ErrInsufficientData, nx)
	}

	xc := lin.Center(x)
	yc := lin.Center(y)

	var ytx mat.Dense
	ytx.Mul(yc.T(), xc)
	dotProd := math.Pow(mat.Norm(&ytx, 2), 2)

	var xtx, yty mat.Dense
	xtx.Mul(xc.T(), xc)
	yty.Mul(yc.T(), yc)
	normX := mat.Norm(&xtx, 2)
	normY := mat.Norm(&yty, 2)

	if !reduceBias {
		return 1 - dotProd/(normX*normY), nil
	}

	// Unbiased HSIC correction of the three Gram statistics, driven by the
	// per-row squared norms.
	rowX := rowSquaredNorms(xc)
	rowY := rowSquaredNorms(yc)
	var sqX, sqY, cross float64
	for i := 0; i < nx; i++ {
		sqX += rowX[i]
		sqY += rowY[i]
		cross += rowX[i] * rowY[i]
	}
	n := float64(nx)
	debias := func(z float64) float64 {
		return z - n/(n-2)*cross + sqX*sqY/((n-1)*(n-2))
	}
	dotProd = debias(dotProd)
	nx2 := debias(normX * normX)
	ny2 := debias(normY * normY)
	return 1 - dotProd/(nx2*ny2), nil
}

func rowSquaredNorms(a *mat.Dense) []float64 {
	r, c := a.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		var s float64
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			s += v * v
		}
		out[i] = s
	}
	return out
}

// OrthogonalProcrustes computes the orthogonal Procrustes distance
// (Ding et al. 2021): both matrices are centered and scaled to unit Frobenius
// norm, then the distance is 1 − ‖xᵀy‖_nuclear. Invariant under orthogonal
// transformations of either side; in [0, 1] by the unit-norm preconditioning.
func OrthogonalProcrustes(x, y *mat.Dense) (float64, error) {
	nx, _ := x.Dims()
	ny, _ := y.Dims()
	if nx != ny {
		return 0, &cca.ShapeError{RowsX: nx, RowsY: ny}
	}

	xn := lin.Normalize(x)
	yn := lin.Normalize(y)
	var xty mat.Dense
	xty.Mul(xn.T(), yn)
	nuc, err := lin.NuclearNorm(&xty)
	if err != nil {
		return 0, err
	}
	return 1 - nuc, nil
}
