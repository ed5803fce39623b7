package fourier

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/repsim/tensor"
)

// Model is the forward-only model collaborator.
type Model interface {
	Forward(x *tensor.Dense) (*tensor.Dense, error)
}

// Criterion maps a prediction and a target to a scalar loss.
type Criterion func(pred, target *tensor.Dense) (float64, error)

type mapOptions struct {
	mapH, mapW  int
	mean, std   []float64
	parallelism int
	logger      *slog.Logger
}

// MapOption configures Map.
type MapOption func(*mapOptions)

// WithMapSize sets the frequency-grid extent. Defaults to the input's
// spatial extent. Computation time is dominated by h·w forward passes.
func WithMapSize(h, w int) MapOption {
	return func(o *mapOptions) { o.mapH, o.mapW = h, w }
}

// WithNormalization supplies the per-channel mean and standard deviation the
// model expects. Inputs are denormalized to [0, 1] before perturbing and
// renormalized before evaluation.
func WithNormalization(mean, std []float64) MapOption {
	return func(o *mapOptions) { o.mean, o.std = mean, std }
}

// WithParallelism evaluates up to n frequencies concurrently. The default of
// 1 keeps computation strictly sequential; anything higher requires a model
// that tolerates concurrent Forward calls.
func WithParallelism(n int) MapOption {
	return func(o *mapOptions) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithMapLogger sets the logger used for progress reporting.
func WithMapLogger(l *slog.Logger) MapOption {
	return func(o *mapOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Map computes an h×w sensitivity map: the loss of model under criterion when
// the input batch is perturbed by each single-frequency Fourier noise of a
// fixed L2 norm.
//
// Only the upper triangle of the frequency grid is evaluated; by conjugate
// symmetry each mirror cell receives the same loss. The context is checked
// between frequencies, so a cancelled Map returns early with ctx.Err().
func Map(ctx context.Context, model Model, input, target *tensor.Dense, criterion Criterion, norm float64, opts ...MapOption) (*tensor.Dense, error) {
	if input.Rank() != 4 {
		return nil, fmt.Errorf("fourier: input must have rank 4, got %d", input.Rank())
	}

	o := mapOptions{
		parallelism: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	h, w := o.mapH, o.mapW
	if h == 0 {
		h = input.Dim(2)
	}
	if w == 0 {
		w = input.Dim(3)
	}

	work := input
	if o.mean != nil {
		work = denormalize(input, o.mean, o.std)
	}

	// Upper triangle (including the diagonal) of the h×w grid.
	type pair struct{ i, j int }
	var pairs []pair
	for i := 0; i < h; i++ {
		for j := i; j < w; j++ {
			pairs = append(pairs, pair{i, j})
		}
	}
	o.logger.Debug("fourier: computing sensitivity map",
		"height", h,
		"width", w,
		"frequencies", len(pairs),
		"parallelism", o.parallelism,
	)

	losses := make([]float64, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for idx, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			noisy, err := AddNoise(p.i, p.j, work, norm, o.mapH, o.mapW)
			if err != nil {
				return err
			}
			if o.mean != nil {
				noisy = normalize(noisy, o.mean, o.std)
			}
			pred, err := model.Forward(noisy)
			if err != nil {
				return err
			}
			loss, err := criterion(pred, target)
			if err != nil {
				return err
			}
			losses[idx] = loss
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := tensor.New(h, w)
	for idx, p := range pairs {
		out.Set(losses[idx], p.i, p.j)
		out.Set(losses[idx], h-1-p.i, w-1-p.j)
	}
	return out, nil
}

// denormalize maps a normalized batch back to pixel range: x·std + mean per
// channel.
func denormalize(t *tensor.Dense, mean, std []float64) *tensor.Dense {
	out := t.Clone()
	applyPerChannel(out, func(c int, v float64) float64 { return v*std[c] + mean[c] })
	return out
}

// normalize maps a pixel-range batch to the model's input range: (x − mean)/std.
func normalize(t *tensor.Dense, mean, std []float64) *tensor.Dense {
	out := t.Clone()
	applyPerChannel(out, func(c int, v float64) float64 { return (v - mean[c]) / std[c] })
	return out
}

func applyPerChannel(t *tensor.Dense, f func(c int, v float64) float64) {
	b, c, h, w := t.Dim(0), t.Dim(1), t.Dim(2), t.Dim(3)
	for bi := 0; bi < b; bi++ {
		for ci := 0; ci < c; ci++ {
			for hi := 0; hi < h; hi++ {
				for wi := 0; wi < w; wi++ {
					t.Set(f(ci, t.At(bi, ci, hi, wi)), bi, ci, hi, wi)
				}
			}
		}
	}
}
