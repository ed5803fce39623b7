package lin

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT2 computes the orthonormal 2-D DFT of g (h rows of w columns):
// the raw transform divided by sqrt(h·w). g is not modified.
func FFT2(g [][]complex128) [][]complex128 {
	return transform2(g, false)
}

// IFFT2 computes the orthonormal inverse 2-D DFT of g, the exact inverse of
// [FFT2]. g is not modified.
func IFFT2(g [][]complex128) [][]complex128 {
	return transform2(g, true)
}

func transform2(g [][]complex128, inverse bool) [][]complex128 {
	h := len(g)
	if h == 0 {
		return nil
	}
	w := len(g[0])

	out := make([][]complex128, h)
	rowFFT := fourier.NewCmplxFFT(w)
	for i, row := range g {
		dst := make([]complex128, w)
		if inverse {
			rowFFT.Sequence(dst, row)
		} else {
			rowFFT.Coefficients(dst, row)
		}
		out[i] = dst
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	res := make([]complex128, h)
	for j := 0; j < w; j++ {
		for i := 0; i < h; i++ {
			col[i] = out[i][j]
		}
		if inverse {
			colFFT.Sequence(res, col)
		} else {
			colFFT.Coefficients(res, col)
		}
		for i := 0; i < h; i++ {
			out[i][j] = res[i]
		}
	}

	// Coefficients followed by Sequence scales by h·w, so dividing both
	// directions by sqrt(h·w) makes the pair orthonormal.
	scale := complex(1/math.Sqrt(float64(h*w)), 0)
	for i := range out {
		for j := range out[i] {
			out[i][j] *= scale
		}
	}
	return out
}

// FFTFreq returns the DFT sample frequencies for a window of length n with
// sample spacing d, in the standard order: non-negative frequencies first,
// then the negative ones.
func FFTFreq(n int, d float64) []float64 {
	val := 1 / (float64(n) * d)
	out := make([]float64, n)
	m := (n-1)/2 + 1
	for i := 0; i < m; i++ {
		out[i] = float64(i) * val
	}
	for i := m; i < n; i++ {
		out[i] = float64(i-n) * val
	}
	return out
}
