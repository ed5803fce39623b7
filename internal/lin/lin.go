// Package lin wraps the gonum decompositions and transforms the similarity
// metrics are built on. All routines are pure and operate on float64; the
// wrappers return errors instead of panicking so callers can surface failures
// as part of the package error taxonomy.
package lin

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrSVDFailed is returned when the SVD iteration does not converge.
var ErrSVDFailed = errors.New("lin: SVD failed to converge")

// SVD holds a thin singular value decomposition A = U·diag(S)·Vᵀ.
// U is m×k, V is n×k and S has length k = min(m, n), sorted descending.
type SVD struct {
	U *mat.Dense
	V *mat.Dense
	S []float64
}

// ThinSVD computes the thin SVD of a. If factorization of a fails it retries
// on aᵀ (which exercises a different iteration order) and swaps the factors.
func ThinSVD(a mat.Matrix) (*SVD, error) {
	var svd mat.SVD
	if svd.Factorize(a, mat.SVDThin) {
		res := &SVD{U: &mat.Dense{}, V: &mat.Dense{}}
		svd.UTo(res.U)
		svd.VTo(res.V)
		res.S = svd.Values(nil)
		return res, nil
	}
	var at mat.Dense
	at.CloneFrom(a.T())
	if !svd.Factorize(&at, mat.SVDThin) {
		return nil, ErrSVDFailed
	}
	res := &SVD{U: &mat.Dense{}, V: &mat.Dense{}}
	svd.VTo(res.U)
	svd.UTo(res.V)
	res.S = svd.Values(nil)
	return res, nil
}

// Rank returns the numerical rank of the decomposition: the number of
// singular values above max(m,n)·eps·s_max.
func (d *SVD) Rank(m, n int) int {
	if len(d.S) == 0 || d.S[0] == 0 {
		return 0
	}
	tol := float64(max(m, n)) * machEps * d.S[0]
	k := 0
	for _, s := range d.S {
		if s > tol {
			k++
		}
	}
	return k
}

// Truncate drops all but the leading k singular triplets.
func (d *SVD) Truncate(k int) {
	if k >= len(d.S) {
		return
	}
	m, _ := d.U.Dims()
	n, _ := d.V.Dims()
	u := mat.DenseCopyOf(d.U.Slice(0, m, 0, k))
	v := mat.DenseCopyOf(d.V.Slice(0, n, 0, k))
	d.U, d.V = u, v
	d.S = d.S[:k]
}

const machEps = 2.220446049250313e-16

// QR holds a thin QR decomposition A = Q·R with Q m×n orthonormal and
// R n×n upper triangular (requires m >= n).
type QR struct {
	Q *mat.Dense
	R *mat.Dense
}

// ThinQR computes the thin QR decomposition of a.
func ThinQR(a mat.Matrix) *QR {
	m, n := a.Dims()
	var qr mat.QR
	qr.Factorize(a)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)
	k := min(m, n)
	return &QR{
		Q: mat.DenseCopyOf(q.Slice(0, m, 0, k)),
		R: mat.DenseCopyOf(r.Slice(0, k, 0, n)),
	}
}

// RSingular reports whether the triangular factor is exactly singular, i.e.
// has a zero diagonal entry. Near-singular factors are left to the caller;
// column centering alone makes every square input rank-deficient by one in
// exact arithmetic, and rejecting those would reject all square data.
func (d *QR) RSingular() bool {
	n, _ := d.R.Dims()
	for i := 0; i < n; i++ {
		if d.R.At(i, i) == 0 {
			return true
		}
	}
	return false
}

// Center subtracts each column's mean from the column, returning a new matrix.
func Center(a mat.Matrix) *mat.Dense {
	r, c := a.Dims()
	out := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		var mean float64
		for i := 0; i < r; i++ {
			mean += a.At(i, j)
		}
		mean /= float64(r)
		for i := 0; i < r; i++ {
			out.Set(i, j, a.At(i, j)-mean)
		}
	}
	return out
}

// Normalize centers columns and scales by the whole-matrix Frobenius norm so
// the result has unit Frobenius norm.
func Normalize(a mat.Matrix) *mat.Dense {
	out := Center(a)
	fro := mat.Norm(out, 2)
	if fro > 0 {
		out.Scale(1/fro, out)
	}
	return out
}

// NuclearNorm returns the sum of singular values of a.
func NuclearNorm(a mat.Matrix) (float64, error) {
	d, err := ThinSVD(a)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, s := range d.S {
		sum += s
	}
	return sum, nil
}
