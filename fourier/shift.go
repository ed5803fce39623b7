package fourier

import (
	"github.com/hupe1980/repsim/tensor"
)

// Shift circularly rotates t by half the extent along the given axes,
// moving the zero frequency to the center of the spectrum. Without axes, the
// spatial axes are shifted: axes 2 and 3 for rank-4 tensors, all axes
// otherwise.
func Shift(t *tensor.Dense, axes ...int) *tensor.Dense {
	out := t.Clone()
	for _, ax := range spatialAxes(t, axes) {
		out = roll(out, ax, t.Dim(ax)/2)
	}
	return out
}

// InverseShift undoes Shift. For even extents Shift and InverseShift are
// exact inverses of each other; odd extents differ by one position, matching
// the standard fftshift/ifftshift conventions.
func InverseShift(t *tensor.Dense, axes ...int) *tensor.Dense {
	out := t.Clone()
	for _, ax := range spatialAxes(t, axes) {
		out = roll(out, ax, floorDiv(-t.Dim(ax), 2))
	}
	return out
}

func spatialAxes(t *tensor.Dense, axes []int) []int {
	if len(axes) > 0 {
		return axes
	}
	if t.Rank() == 4 {
		return []int{2, 3}
	}
	all := make([]int, t.Rank())
	for i := range all {
		all[i] = i
	}
	return all
}

// floorDiv is floor division, so floorDiv(-5, 2) == -3.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// roll rotates t by shift positions along axis, wrapping around.
func roll(t *tensor.Dense, axis, shift int) *tensor.Dense {
	n := t.Dim(axis)
	shift = ((shift % n) + n) % n
	if shift == 0 {
		return t
	}

	shape := t.Shape()
	// Strides of the row-major layout.
	outer := 1
	for i := 0; i < axis; i++ {
		outer *= shape[i]
	}
	inner := 1
	for i := axis + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	src := t.Data()
	dst := make([]float64, len(src))
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for i := 0; i < n; i++ {
			from := base + i*inner
			to := base + ((i+shift)%n)*inner
			copy(dst[to:to+inner], src[from:from+inner])
		}
	}
	return tensor.NewWithData(dst, shape...)
}

// rollGrid rotates a complex grid by (si, sj) with wrap-around.
func rollGrid(g [][]complex128, si, sj int) [][]complex128 {
	h := len(g)
	w := len(g[0])
	si = ((si % h) + h) % h
	sj = ((sj % w) + w) % w
	out := make([][]complex128, h)
	for i := range out {
		out[i] = make([]complex128, w)
	}
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			out[(i+si)%h][(j+sj)%w] = g[i][j]
		}
	}
	return out
}
