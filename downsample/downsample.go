// Package downsample reshapes rank-4 activation tensors (batch, channel,
// height, width) into the 2-D matrix forms the distance metrics consume,
// optionally reducing the spatial extent first by average pooling or by
// frequency-domain truncation.
package downsample

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/repsim/internal/lin"
	"github.com/hupe1980/repsim/tensor"
)

// Method selects how the spatial extent is reduced.
type Method int

const (
	// MethodAvgPool reduces spatially with adaptive average pooling.
	MethodAvgPool Method = iota
	// MethodDFT truncates high frequencies of the spatial 2-D DFT, following
	// the Google SVCCA treatment of convolutional layers. Requires square
	// feature maps.
	MethodDFT
)

func (m Method) String() string {
	switch m {
	case MethodAvgPool:
		return "avg_pool"
	case MethodDFT:
		return "dft"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ErrUnsupportedMethod is returned for a method outside the closed set.
var ErrUnsupportedMethod = errors.New("downsample: unsupported method")

// ParseMethod resolves a method name ("avg_pool" or "dft").
func ParseMethod(s string) (Method, error) {
	switch s {
	case "avg_pool":
		return MethodAvgPool, nil
	case "dft":
		return MethodDFT, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
}

// ErrInvalidShape is wrapped by shape-contract failures of this package.
var ErrInvalidShape = errors.New("downsample: invalid shape")

// SizeError indicates a requested spatial size larger than the feature map.
type SizeError struct {
	Size int
	H, W int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("downsample: size %d exceeds feature map %dx%d", e.Size, e.H, e.W)
}

// FlattenFilter reshapes a [B, C, H, W] tensor to a [B·H·W, C] matrix: each
// filter is one neuron, each spatial position of each sample one data point.
func FlattenFilter(t *tensor.Dense) (*mat.Dense, error) {
	if t.Rank() != 4 {
		return nil, fmt.Errorf("%w: want rank 4, got rank %d", ErrInvalidShape, t.Rank())
	}
	b, c, h, w := t.Dim(0), t.Dim(1), t.Dim(2), t.Dim(3)
	out := mat.NewDense(b*h*w, c, nil)
	for bi := 0; bi < b; bi++ {
		for ci := 0; ci < c; ci++ {
			for hi := 0; hi < h; hi++ {
				for wi := 0; wi < w; wi++ {
					out.Set(bi*h*w+hi*w+wi, ci, t.At(bi, ci, hi, wi))
				}
			}
		}
	}
	return out, nil
}

// PerSample reshapes a [B, C, H, W] tensor into B matrices of [C, H·W], one
// per data point. Distances over the stack are averaged by the caller.
func PerSample(t *tensor.Dense) ([]*mat.Dense, error) {
	if t.Rank() != 4 {
		return nil, fmt.Errorf("%w: want rank 4, got rank %d", ErrInvalidShape, t.Rank())
	}
	b, c, h, w := t.Dim(0), t.Dim(1), t.Dim(2), t.Dim(3)
	out := make([]*mat.Dense, b)
	for bi := 0; bi < b; bi++ {
		m := mat.NewDense(c, h*w, nil)
		for ci := 0; ci < c; ci++ {
			for hi := 0; hi < h; hi++ {
				for wi := 0; wi < w; wi++ {
					m.Set(ci, hi*w+wi, t.At(bi, ci, hi, wi))
				}
			}
		}
		out[bi] = m
	}
	return out, nil
}

// Spatial reduces a [B, C, H, W] tensor to size×size spatial positions and
// returns size² stacked [B, C] matrices, one per retained position: each
// filter is a neuron whose responses across the batch are the data points.
//
// When size equals the spatial extent this is a pure reshape and method is
// not consulted.
func Spatial(t *tensor.Dense, size int, method Method) ([]*mat.Dense, error) {
	if t.Rank() != 4 {
		return nil, fmt.Errorf("%w: want rank 4, got rank %d", ErrInvalidShape, t.Rank())
	}
	h, w := t.Dim(2), t.Dim(3)
	if size == h && size == w {
		return stackPositions(t), nil
	}
	if size > h || size > w {
		return nil, &SizeError{Size: size, H: h, W: w}
	}

	switch method {
	case MethodAvgPool:
		return stackPositions(avgPool(t, size)), nil
	case MethodDFT:
		reduced, err := dftTruncate(t, size)
		if err != nil {
			return nil, err
		}
		return stackPositions(reduced), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMethod, method)
	}
}

// stackPositions turns [B, C, S, S] into S² matrices of [B, C].
func stackPositions(t *tensor.Dense) []*mat.Dense {
	b, c, h, w := t.Dim(0), t.Dim(1), t.Dim(2), t.Dim(3)
	out := make([]*mat.Dense, h*w)
	for hi := 0; hi < h; hi++ {
		for wi := 0; wi < w; wi++ {
			m := mat.NewDense(b, c, nil)
			for bi := 0; bi < b; bi++ {
				for ci := 0; ci < c; ci++ {
					m.Set(bi, ci, t.At(bi, ci, hi, wi))
				}
			}
			out[hi*w+wi] = m
		}
	}
	return out
}

// avgPool applies adaptive spatial average pooling to size×size: output cell
// i covers input rows [i·H/size, ceil((i+1)·H/size)).
func avgPool(t *tensor.Dense, size int) *tensor.Dense {
	b, c, h, w := t.Dim(0), t.Dim(1), t.Dim(2), t.Dim(3)
	out := tensor.New(b, c, size, size)
	for bi := 0; bi < b; bi++ {
		for ci := 0; ci < c; ci++ {
			for oi := 0; oi < size; oi++ {
				hs, he := oi*h/size, ceilDiv((oi+1)*h, size)
				for oj := 0; oj < size; oj++ {
					ws, we := oj*w/size, ceilDiv((oj+1)*w, size)
					var sum float64
					for hi := hs; hi < he; hi++ {
						for wi := ws; wi < we; wi++ {
							sum += t.At(bi, ci, hi, wi)
						}
					}
					out.Set(sum/float64((he-hs)*(we-ws)), bi, ci, oi, oj)
				}
			}
		}
	}
	return out
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// dftTruncate keeps only the frequencies in [-size/2, size/2) of the 2-D DFT
// of each (b, c) slice and inverse-transforms the truncated grid.
func dftTruncate(t *tensor.Dense, size int) (*tensor.Dense, error) {
	b, c, h, w := t.Dim(0), t.Dim(1), t.Dim(2), t.Dim(3)
	if h != w {
		return nil, fmt.Errorf("%w: dft downsampling needs square feature maps, got %dx%d", ErrInvalidShape, h, w)
	}

	freqs := lin.FFTFreq(h, 1/float64(h))
	keep := make([]int, 0, size)
	lo, hi := -float64(size)/2, float64(size)/2
	for i, f := range freqs {
		if f >= lo && f < hi {
			keep = append(keep, i)
		}
	}

	out := tensor.New(b, c, size, size)
	grid := make([][]complex128, h)
	for i := range grid {
		grid[i] = make([]complex128, w)
	}
	for bi := 0; bi < b; bi++ {
		for ci := 0; ci < c; ci++ {
			for hi2 := 0; hi2 < h; hi2++ {
				for wi := 0; wi < w; wi++ {
					grid[hi2][wi] = complex(t.At(bi, ci, hi2, wi), 0)
				}
			}
			spec := lin.FFT2(grid)
			trunc := make([][]complex128, size)
			for i, fi := range keep {
				trunc[i] = make([]complex128, size)
				for j, fj := range keep {
					trunc[i][j] = spec[fi][fj]
				}
			}
			rec := lin.IFFT2(trunc)
			for i := 0; i < size; i++ {
				for j := 0; j < size; j++ {
					out.Set(real(rec[i][j]), bi, ci, i, j)
				}
			}
		}
	}
	return out, nil
}
