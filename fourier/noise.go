package fourier

import (
	"fmt"
	"math"

	"github.com/hupe1980/repsim/internal/lin"
	"github.com/hupe1980/repsim/tensor"
)

// AddNoise returns a copy of the image batch (rank 4, [B, C, H, W], pixel
// range [0, 1]) perturbed by the single-frequency Fourier basis at (i, j) of
// an h×w frequency grid, rescaled to the requested L2 norm.
//
// The conjugate mirror frequency (h−1−i, w−1−j) is set together with (i, j)
// so the spatial-domain basis is real. h and w of 0 default to the image's
// spatial extent; when they differ from it, the basis image is resized to
// fit. The result is clamped back to [0, 1].
func AddNoise(i, j int, images *tensor.Dense, norm float64, h, w int) (*tensor.Dense, error) {
	if images.Rank() != 4 {
		return nil, fmt.Errorf("fourier: images must have rank 4, got %d", images.Rank())
	}
	imgH, imgW := images.Dim(2), images.Dim(3)
	if h == 0 {
		h = imgH
	}
	if w == 0 {
		w = imgW
	}
	if i < 0 || i >= h || j < 0 || j >= w {
		return nil, fmt.Errorf("fourier: frequency (%d, %d) outside %dx%d grid", i, j, h, w)
	}

	basis := basisImage(i, j, h, w)
	scaleToNorm(basis, norm)
	if h != imgH || w != imgW {
		basis = resizeNearest(basis, imgH, imgW)
	}

	out := images.Clone()
	b, c := out.Dim(0), out.Dim(1)
	for bi := 0; bi < b; bi++ {
		for ci := 0; ci < c; ci++ {
			for hi := 0; hi < imgH; hi++ {
				for wi := 0; wi < imgW; wi++ {
					v := out.At(bi, ci, hi, wi) + basis[hi][wi]
					out.Set(math.Min(1, math.Max(0, v)), bi, ci, hi, wi)
				}
			}
		}
	}
	return out, nil
}

// basisImage builds the real spatial-domain image of the conjugate frequency
// pair (i, j) and (h−1−i, w−1−j) placed on a centered spectrum.
func basisImage(i, j, h, w int) [][]float64 {
	grid := make([][]complex128, h)
	for r := range grid {
		grid[r] = make([]complex128, w)
	}
	grid[i][j] = 1
	grid[h-1-i][w-1-j] = 1

	// The pair is placed on a centered spectrum; shift zero frequency back
	// to the corner before inverting.
	grid = rollGrid(grid, floorDiv(-h, 2), floorDiv(-w, 2))
	rec := lin.IFFT2(grid)

	out := make([][]float64, h)
	for r := range out {
		out[r] = make([]float64, w)
		for c := range out[r] {
			out[r][c] = real(rec[r][c])
		}
	}
	return out
}

func scaleToNorm(g [][]float64, norm float64) {
	var sq float64
	for _, row := range g {
		for _, v := range row {
			sq += v * v
		}
	}
	if sq == 0 {
		return
	}
	s := norm / math.Sqrt(sq)
	for _, row := range g {
		for i := range row {
			row[i] *= s
		}
	}
}

// resizeNearest resizes g to H×W by nearest-neighbor sampling.
func resizeNearest(g [][]float64, H, W int) [][]float64 {
	h := len(g)
	w := len(g[0])
	out := make([][]float64, H)
	for i := range out {
		out[i] = make([]float64, W)
		si := i * h / H
		for j := range out[i] {
			out[i][j] = g[si][j*w/W]
		}
	}
	return out
}
