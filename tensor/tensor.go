// Package tensor provides a minimal row-major dense tensor used to carry
// activations between a model and the similarity metrics.
//
// Only ranks 1 through 4 are supported; rank 2 tensors convert losslessly to
// and from gonum matrices, which is the form the numeric core operates on.
package tensor

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Dense is a row-major dense float64 tensor.
type Dense struct {
	shape []int
	data  []float64
}

// New creates a zero-filled tensor with the given shape.
// It panics if the rank is not in [1, 4] or any dimension is not positive.
func New(shape ...int) *Dense {
	if len(shape) < 1 || len(shape) > 4 {
		panic(fmt.Sprintf("tensor: unsupported rank %d", len(shape)))
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("tensor: non-positive dimension in shape %v", shape))
		}
		n *= d
	}
	return &Dense{
		shape: slices.Clone(shape),
		data:  make([]float64, n),
	}
}

// NewWithData creates a tensor wrapping the given backing slice.
// The slice is used directly, not copied. It panics if len(data) does not
// match the shape.
func NewWithData(data []float64, shape ...int) *Dense {
	t := &Dense{shape: slices.Clone(shape)}
	if len(shape) < 1 || len(shape) > 4 {
		panic(fmt.Sprintf("tensor: unsupported rank %d", len(shape)))
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			panic(fmt.Sprintf("tensor: non-positive dimension in shape %v", shape))
		}
		n *= d
	}
	if len(data) != n {
		panic(fmt.Sprintf("tensor: data length %d does not match shape %v", len(data), shape))
	}
	t.data = data
	return t
}

// Rank returns the number of dimensions.
func (t *Dense) Rank() int { return len(t.shape) }

// Dim returns the size of the i-th dimension.
func (t *Dense) Dim(i int) int { return t.shape[i] }

// Shape returns a copy of the tensor's shape.
func (t *Dense) Shape() []int { return slices.Clone(t.shape) }

// Len returns the total number of elements.
func (t *Dense) Len() int { return len(t.data) }

// Data returns the backing slice in row-major order.
// Mutating it mutates the tensor.
func (t *Dense) Data() []float64 { return t.data }

func (t *Dense) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank-%d tensor", len(idx), len(t.shape)))
	}
	off := 0
	for i, ix := range idx {
		if ix < 0 || ix >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off = off*t.shape[i] + ix
	}
	return off
}

// At returns the element at the given indices.
func (t *Dense) At(idx ...int) float64 { return t.data[t.offset(idx)] }

// Set stores v at the given indices.
func (t *Dense) Set(v float64, idx ...int) { t.data[t.offset(idx)] = v }

// Clone returns a deep copy of the tensor.
func (t *Dense) Clone() *Dense {
	return &Dense{
		shape: slices.Clone(t.shape),
		data:  slices.Clone(t.data),
	}
}

// Reshape returns a tensor sharing t's data with a new shape of equal length.
func (t *Dense) Reshape(shape ...int) *Dense {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(t.data) {
		panic(fmt.Sprintf("tensor: cannot reshape %v to %v", t.shape, shape))
	}
	return NewWithData(t.data, shape...)
}

// Matrix returns a rank-2 tensor as a gonum matrix sharing t's data.
func (t *Dense) Matrix() *mat.Dense {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("tensor: Matrix called on rank-%d tensor", len(t.shape)))
	}
	return mat.NewDense(t.shape[0], t.shape[1], t.data)
}

// FromMatrix wraps a gonum matrix as a rank-2 tensor sharing its data.
func FromMatrix(m *mat.Dense) *Dense {
	r, c := m.Dims()
	return NewWithData(m.RawMatrix().Data, r, c)
}

// Concat concatenates a and b along axis 0. All other dimensions must match.
func Concat(a, b *Dense) (*Dense, error) {
	if a.Rank() != b.Rank() {
		return nil, fmt.Errorf("tensor: concat rank mismatch: %d vs %d", a.Rank(), b.Rank())
	}
	for i := 1; i < a.Rank(); i++ {
		if a.shape[i] != b.shape[i] {
			return nil, fmt.Errorf("tensor: concat shape mismatch along axis %d: %v vs %v", i, a.shape, b.shape)
		}
	}
	shape := a.Shape()
	shape[0] += b.shape[0]
	data := make([]float64, 0, len(a.data)+len(b.data))
	data = append(data, a.data...)
	data = append(data, b.data...)
	return NewWithData(data, shape...), nil
}
