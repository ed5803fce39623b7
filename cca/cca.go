package cca

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/repsim/internal/lin"
)

// Backend selects the decomposition used to compute canonical correlations.
type Backend int

const (
	// BackendSVD decomposes both matrices by SVD. Default; handles rank
	// deficiency.
	BackendSVD Backend = iota
	// BackendQR decomposes both matrices by QR. Requires full column rank.
	BackendQR
)

func (b Backend) String() string {
	switch b {
	case BackendSVD:
		return "svd"
	case BackendQR:
		return "qr"
	default:
		return fmt.Sprintf("Unknown(%d)", int(b))
	}
}

// ErrUnsupportedBackend is returned for a backend outside the closed set.
var ErrUnsupportedBackend = errors.New("cca: unsupported backend")

// ParseBackend resolves a backend name ("svd" or "qr").
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "svd":
		return BackendSVD, nil
	case "qr":
		return BackendQR, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedBackend, s)
	}
}

// ShapeError indicates that the two matrices disagree on the number of data
// points (rows).
type ShapeError struct {
	RowsX int
	RowsY int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("cca: row count mismatch: x has %d rows, y has %d", e.RowsX, e.RowsY)
}

// SingularMatrixError indicates that the QR backend met a non-invertible
// triangular factor, i.e. a rank-deficient input.
type SingularMatrixError struct {
	Side string // "x" or "y"
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("cca: triangular factor of %s is singular; use the svd backend for rank-deficient data", e.Side)
}

// Result holds the canonical projections and correlations.
// A is D1×K, B is D2×K and Diag has length K = min of the two effective
// ranks. Diag values lie in [0, 1], ordered as produced by the SVD
// (descending).
type Result struct {
	A    *mat.Dense
	B    *mat.Dense
	Diag []float64
}

// CCA computes canonical correlations between x (N×D1) and y (N×D2).
//
// Both matrices are column-centered unconditionally before decomposition.
// A row-count mismatch is a *ShapeError. When either matrix has fewer rows
// than columns a warning is logged and computation proceeds; the result is
// numerically valid but less reliable.
func CCA(x, y *mat.Dense, backend Backend) (*Result, error) {
	if backend != BackendSVD && backend != BackendQR {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedBackend, backend)
	}

	nx, dx := x.Dims()
	ny, dy := y.Dims()
	if nx != ny {
		return nil, &ShapeError{RowsX: nx, RowsY: ny}
	}
	if nx < dx || ny < dy {
		slog.Warn("cca: fewer data points than features, correlations may be unreliable",
			"rows", nx,
			"cols_x", dx,
			"cols_y", dy,
		)
	}

	xc := lin.Center(x)
	yc := lin.Center(y)

	if backend == BackendQR {
		return ccaByQR(xc, yc)
	}
	return ccaBySVD(xc, yc)
}

// ccaBySVD computes CCA from the SVDs of both centered matrices: the singular
// values of U1ᵀU2 are the canonical correlations, and projections are
// recovered by scaling V by the reciprocal singular values.
func ccaBySVD(x, y *mat.Dense) (*Result, error) {
	d1, err := lin.ThinSVD(x)
	if err != nil {
		return nil, err
	}
	d2, err := lin.ThinSVD(y)
	if err != nil {
		return nil, err
	}
	nx, dx := x.Dims()
	ny, dy := y.Dims()
	d1.Truncate(d1.Rank(nx, dx))
	d2.Truncate(d2.Rank(ny, dy))

	var uu mat.Dense
	uu.Mul(d1.U.T(), d2.U)
	dd, err := lin.ThinSVD(&uu)
	if err != nil {
		return nil, err
	}

	a := new(mat.Dense)
	a.Mul(scaleColumns(d1.V, d1.S), dd.U)
	b := new(mat.Dense)
	b.Mul(scaleColumns(d2.V, d2.S), dd.V)
	return &Result{A: a, B: b, Diag: dd.S}, nil
}

// ccaByQR computes CCA from the thin QR factors: the singular values of
// Q1ᵀQ2 are the canonical correlations, and projections are recovered by
// applying the inverse triangular factors.
func ccaByQR(x, y *mat.Dense) (*Result, error) {
	d1 := lin.ThinQR(x)
	if d1.RSingular() {
		return nil, &SingularMatrixError{Side: "x"}
	}
	d2 := lin.ThinQR(y)
	if d2.RSingular() {
		return nil, &SingularMatrixError{Side: "y"}
	}

	var qq mat.Dense
	qq.Mul(d1.Q.T(), d2.Q)
	dd, err := lin.ThinSVD(&qq)
	if err != nil {
		return nil, err
	}

	r1inv, err := invert(d1.R, "x")
	if err != nil {
		return nil, err
	}
	r2inv, err := invert(d2.R, "y")
	if err != nil {
		return nil, err
	}

	a := new(mat.Dense)
	a.Mul(r1inv, dd.U)
	b := new(mat.Dense)
	b.Mul(r2inv, dd.V)
	return &Result{A: a, B: b, Diag: dd.S}, nil
}

// scaleColumns returns v with column j scaled by 1/s[j].
func scaleColumns(v *mat.Dense, s []float64) *mat.Dense {
	r, c := v.Dims()
	out := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		inv := 1 / s[j]
		for i := 0; i < r; i++ {
			out.Set(i, j, v.At(i, j)*inv)
		}
	}
	return out
}

func invert(r *mat.Dense, side string) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(r); err != nil {
		// A finite Condition error means the inverse was computed but is
		// ill-conditioned; anything else is genuine singularity.
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) {
			return nil, &SingularMatrixError{Side: side}
		}
	}
	return &inv, nil
}
