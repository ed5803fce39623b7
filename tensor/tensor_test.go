package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	d := New(2, 3, 4)
	assert.Equal(t, 3, d.Rank())
	assert.Equal(t, []int{2, 3, 4}, d.Shape())
	assert.Equal(t, 24, d.Len())
	assert.Equal(t, 0.0, d.At(1, 2, 3))

	assert.Panics(t, func() { New() })
	assert.Panics(t, func() { New(1, 2, 3, 4, 5) })
	assert.Panics(t, func() { New(2, 0) })
}

func TestNewWithData(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	d := NewWithData(data, 2, 3)
	assert.Equal(t, 6.0, d.At(1, 2))

	// Backing slice is shared.
	data[0] = 9
	assert.Equal(t, 9.0, d.At(0, 0))

	assert.Panics(t, func() { NewWithData(data, 2, 2) })
}

func TestAtSet(t *testing.T) {
	d := New(2, 2, 2, 2)
	d.Set(3.5, 1, 0, 1, 1)
	assert.Equal(t, 3.5, d.At(1, 0, 1, 1))

	// Row-major layout: the last index varies fastest.
	assert.Equal(t, 3.5, d.Data()[1*8+0*4+1*2+1])

	assert.Panics(t, func() { d.At(0, 0) })
	assert.Panics(t, func() { d.At(2, 0, 0, 0) })
}

func TestClone(t *testing.T) {
	d := NewWithData([]float64{1, 2, 3, 4}, 2, 2)
	c := d.Clone()
	c.Set(7, 0, 0)
	assert.Equal(t, 1.0, d.At(0, 0))
	assert.Equal(t, 7.0, c.At(0, 0))
}

func TestReshape(t *testing.T) {
	d := NewWithData([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	r := d.Reshape(3, 2)
	assert.Equal(t, []int{3, 2}, r.Shape())
	assert.Equal(t, 4.0, r.At(1, 1))

	// Reshape shares data.
	r.Set(0, 0, 0)
	assert.Equal(t, 0.0, d.At(0, 0))

	assert.Panics(t, func() { d.Reshape(4, 2) })
}

func TestMatrixRoundTrip(t *testing.T) {
	d := NewWithData([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	m := d.Matrix()
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 6.0, m.At(1, 2))

	back := FromMatrix(m)
	assert.Equal(t, d.Shape(), back.Shape())
	assert.Equal(t, d.Data(), back.Data())

	assert.Panics(t, func() { New(2, 2, 2).Matrix() })
}

func TestConcat(t *testing.T) {
	a := NewWithData([]float64{1, 2, 3, 4}, 2, 2)
	b := NewWithData([]float64{5, 6}, 1, 2)

	c, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, c.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, c.Data())

	_, err = Concat(a, New(1, 3))
	assert.Error(t, err)

	_, err = Concat(a, New(2, 2, 2))
	assert.Error(t, err)
}
