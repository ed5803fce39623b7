// Package capture accumulates intermediate-layer outputs of a model across
// forward passes, in the matrix forms the distance metrics consume.
//
// The model collaborator only has to expose named layers with a forward-hook
// tap point; capture subscribes to one layer and concatenates everything the
// layer emits along the data-point axis until cleared.
package capture

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/repsim/tensor"
)

// Layer is a tap point on a model: the hook is invoked with the layer's
// output tensor after every forward pass. The returned function unregisters
// the hook.
type Layer interface {
	RegisterForwardHook(hook func(out *tensor.Dense)) (detach func())
}

// Model exposes layers by the names of its named-module structure.
type Model interface {
	Layer(name string) (Layer, bool)
}

// LayerNotFoundError indicates that the model has no layer with the
// requested name.
type LayerNotFoundError struct {
	Name string
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("capture: model has no layer %q", e.Name)
}

// RankError indicates a captured tensor of unsupported rank. Only rank 2
// (N×D) and rank 4 (N×C×H×W) outputs satisfy the capture contract.
type RankError struct {
	Rank int
}

func (e *RankError) Error() string {
	return fmt.Sprintf("capture: layer emitted a rank-%d tensor, want rank 2 or 4", e.Rank)
}

// ErrNoActivations is returned when activations are requested before any
// forward pass has run (or after Clear).
var ErrNoActivations = errors.New("capture: no activations captured, run the model first")

// Capture subscribes to one layer and accumulates its outputs.
//
// The buffer is exclusively owned by the Capture. Concurrent forward passes
// against the same capture point are not safe; serialize forward passes or
// attach one Capture per goroutine.
type Capture struct {
	name   string
	logger *slog.Logger

	buf     *tensor.Dense
	hookErr error
	detach  func()
}

// Option configures a Capture.
type Option func(*Capture)

// WithLogger sets the logger used for capture events. Default slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Capture) { c.logger = l }
}

// New attaches a capture to the named layer of model.
func New(model Model, name string, opts ...Option) (*Capture, error) {
	layer, ok := model.Layer(name)
	if !ok {
		return nil, &LayerNotFoundError{Name: name}
	}

	c := &Capture{
		name:   name,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.detach = layer.RegisterForwardHook(c.capture)
	return c, nil
}

// capture is the forward hook. Rank violations are latched and surfaced on
// the next Activations call; a hook has no error return path.
func (c *Capture) capture(out *tensor.Dense) {
	if r := out.Rank(); r != 2 && r != 4 {
		c.hookErr = &RankError{Rank: r}
		c.logger.Error("capture: dropping layer output",
			"layer", c.name,
			"rank", r,
		)
		return
	}

	if c.buf == nil {
		c.buf = out.Clone()
		return
	}
	joined, err := tensor.Concat(c.buf, out)
	if err != nil {
		c.hookErr = err
		c.logger.Error("capture: dropping layer output",
			"layer", c.name,
			"error", err,
		)
		return
	}
	c.buf = joined
}

// Name returns the captured layer's name.
func (c *Capture) Name() string { return c.name }

// Activations returns the accumulated activation tensor.
// It fails with ErrNoActivations before the first forward pass, and with the
// latched contract violation if the layer ever emitted an unsupported shape.
func (c *Capture) Activations() (*tensor.Dense, error) {
	if c.hookErr != nil {
		return nil, c.hookErr
	}
	if c.buf == nil {
		return nil, ErrNoActivations
	}
	return c.buf, nil
}

// Clear drops the accumulated activations. The capture stays attached.
func (c *Capture) Clear() {
	c.buf = nil
	c.hookErr = nil
}

// Detach unregisters the forward hook. The buffer is kept until Clear.
func (c *Capture) Detach() {
	if c.detach != nil {
		c.detach()
		c.detach = nil
	}
}
