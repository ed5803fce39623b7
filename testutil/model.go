package testutil

import (
	"fmt"

	"github.com/hupe1980/repsim/capture"
	"github.com/hupe1980/repsim/tensor"
)

// StaticLayer is a hookable layer applying a fixed transform.
type StaticLayer struct {
	transform func(*tensor.Dense) *tensor.Dense
	hooks     map[int]func(*tensor.Dense)
	nextHook  int
}

// RegisterForwardHook registers h to be called with the layer's output after
// every forward pass. The returned function unregisters it.
func (l *StaticLayer) RegisterForwardHook(h func(*tensor.Dense)) func() {
	if l.hooks == nil {
		l.hooks = make(map[int]func(*tensor.Dense))
	}
	id := l.nextHook
	l.nextHook++
	l.hooks[id] = h
	return func() { delete(l.hooks, id) }
}

// StaticModel is a minimal in-memory model: an ordered chain of named layers,
// each applying a fixed transform. It satisfies both the capture.Model and
// fourier.Model collaborator contracts.
type StaticModel struct {
	names  []string
	layers map[string]*StaticLayer
}

// NewStaticModel creates an empty model.
func NewStaticModel() *StaticModel {
	return &StaticModel{layers: make(map[string]*StaticLayer)}
}

// AddLayer appends a named layer applying transform. A nil transform is the
// identity.
func (m *StaticModel) AddLayer(name string, transform func(*tensor.Dense) *tensor.Dense) *StaticModel {
	if transform == nil {
		transform = func(t *tensor.Dense) *tensor.Dense { return t }
	}
	m.names = append(m.names, name)
	m.layers[name] = &StaticLayer{transform: transform}
	return m
}

// AddConstantLayer appends a named layer that ignores its input and always
// emits out.
func (m *StaticModel) AddConstantLayer(name string, out *tensor.Dense) *StaticModel {
	return m.AddLayer(name, func(*tensor.Dense) *tensor.Dense { return out.Clone() })
}

// Layer returns the named layer as a capture tap point.
func (m *StaticModel) Layer(name string) (capture.Layer, bool) {
	l, ok := m.layers[name]
	if !ok {
		return nil, false
	}
	return l, true
}

// Forward runs the layer chain on x, firing forward hooks with each layer's
// output, and returns the final output.
func (m *StaticModel) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	if len(m.names) == 0 {
		return nil, fmt.Errorf("testutil: model has no layers")
	}
	cur := x
	for _, name := range m.names {
		l := m.layers[name]
		cur = l.transform(cur)
		for _, h := range l.hooks {
			h(cur)
		}
	}
	return cur, nil
}
