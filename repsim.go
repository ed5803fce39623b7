package repsim

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/repsim/capture"
	"github.com/hupe1980/repsim/cca"
	"github.com/hupe1980/repsim/distance"
	"github.com/hupe1980/repsim/downsample"
	"github.com/hupe1980/repsim/tensor"
)

// Distance computes the representation distance between the activations
// accumulated by two captures.
//
// Both captures must hold tensors of the same rank, accumulated over the same
// number of data points. Rank-2 activations are compared directly; rank-4
// activations are reshaped per the configured NeuronKind, with optional
// spatial downsampling under NeuronStacked.
func Distance(a, b *capture.Capture, opts ...Option) (float64, error) {
	o := options{
		kind:       distance.KindPWCCA,
		backend:    cca.BackendSVD,
		acceptRate: 0.99,
		neuron:     NeuronFilter,
		method:     downsample.MethodAvgPool,
		logger:     NewLogger(nil),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.neuron != NeuronFilter && o.neuron != NeuronStacked {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedNeuronKind, o.neuron)
	}

	fn, err := distance.Provider(o.kind,
		distance.WithBackend(o.backend),
		distance.WithAcceptRate(o.acceptRate),
		distance.WithDebiasing(o.reduceBias),
	)
	if err != nil {
		return 0, err
	}

	ta, err := a.Activations()
	if err != nil {
		return 0, err
	}
	tb, err := b.Activations()
	if err != nil {
		return 0, err
	}
	if ta.Rank() != tb.Rank() {
		return 0, &ShapeError{
			Detail: fmt.Sprintf("captured ranks differ: %d vs %d", ta.Rank(), tb.Rank()),
		}
	}
	if ta.Dim(0) != tb.Dim(0) {
		return 0, &ShapeError{
			Detail: fmt.Sprintf("captured data points differ: %d vs %d", ta.Dim(0), tb.Dim(0)),
		}
	}

	score, err := dispatch(ta, tb, fn, &o)
	o.logger.LogDistance(context.Background(), o.kind.String(), ta.Dim(0), score, err)
	return score, translateError(err)
}

func dispatch(ta, tb *tensor.Dense, fn distance.Func, o *options) (float64, error) {
	if ta.Rank() == 2 {
		return fn(ta.Matrix(), tb.Matrix())
	}

	switch o.neuron {
	case NeuronFilter:
		ma, err := downsample.FlattenFilter(ta)
		if err != nil {
			return 0, err
		}
		mb, err := downsample.FlattenFilter(tb)
		if err != nil {
			return 0, err
		}
		return fn(ma, mb)
	default: // NeuronStacked, validated by the caller
		var sa, sb []*mat.Dense
		var err error
		if o.size == 0 {
			if sa, err = downsample.PerSample(ta); err != nil {
				return 0, err
			}
			if sb, err = downsample.PerSample(tb); err != nil {
				return 0, err
			}
		} else {
			if sa, err = downsample.Spatial(ta, o.size, o.method); err != nil {
				return 0, err
			}
			if sb, err = downsample.Spatial(tb, o.size, o.method); err != nil {
				return 0, err
			}
		}
		return meanDistance(sa, sb, fn)
	}
}

// meanDistance averages fn over a stack of matrix pairs.
func meanDistance(sa, sb []*mat.Dense, fn distance.Func) (float64, error) {
	if len(sa) != len(sb) {
		return 0, &ShapeError{
			Detail: fmt.Sprintf("stack lengths differ: %d vs %d", len(sa), len(sb)),
		}
	}
	var sum float64
	for i := range sa {
		d, err := fn(sa[i], sb[i])
		if err != nil {
			return 0, err
		}
		sum += d
	}
	return sum / float64(len(sa)), nil
}
