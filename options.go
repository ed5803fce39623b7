package repsim

import (
	"github.com/hupe1980/repsim/cca"
	"github.com/hupe1980/repsim/distance"
	"github.com/hupe1980/repsim/downsample"
)

// NeuronKind selects how 4-D convolutional activations are interpreted as
// neurons when computing a distance.
type NeuronKind int

const (
	// NeuronFilter treats each filter as one neuron: [B, C, H, W] is
	// flattened to [B·H·W, C] and a single distance is computed.
	NeuronFilter NeuronKind = iota
	// NeuronStacked compares a stack of 2-D slices and averages the
	// per-slice distances: per retained spatial position when a downsample
	// size is set, per sample otherwise.
	NeuronStacked
)

func (k NeuronKind) String() string {
	switch k {
	case NeuronFilter:
		return "filter"
	case NeuronStacked:
		return "stacked"
	default:
		return "unknown"
	}
}

type options struct {
	kind       distance.Kind
	backend    cca.Backend
	acceptRate float64
	reduceBias bool
	neuron     NeuronKind
	size       int
	method     downsample.Method
	logger     *Logger
}

// Option configures Distance.
type Option func(*options)

// WithKind sets the distance kind. Default PWCCA.
func WithKind(k distance.Kind) Option {
	return func(o *options) { o.kind = k }
}

// WithBackend sets the CCA backend for CCA-family kinds. Default svd.
func WithBackend(b cca.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithAcceptRate sets the SVCCA truncation mass. Default 0.99.
func WithAcceptRate(rate float64) Option {
	return func(o *options) { o.acceptRate = rate }
}

// WithDebiasedCKA enables the unbiased HSIC estimator for Linear CKA.
// Requires at least 3 captured data points.
func WithDebiasedCKA(on bool) Option {
	return func(o *options) { o.reduceBias = on }
}

// WithNeuronKind sets the 4-D neuron interpretation. Default NeuronFilter.
func WithNeuronKind(k NeuronKind) Option {
	return func(o *options) { o.neuron = k }
}

// WithDownsampleSize sets the spatial extent 4-D activations are reduced to
// before comparison under NeuronStacked. Zero (the default) compares per
// sample without spatial reduction.
func WithDownsampleSize(size int) Option {
	return func(o *options) { o.size = size }
}

// WithDownsampleMethod sets the spatial reduction method. Default avg_pool.
func WithDownsampleMethod(m downsample.Method) Option {
	return func(o *options) { o.method = m }
}

// WithLogger sets the logger. Default is a text logger at info level.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
