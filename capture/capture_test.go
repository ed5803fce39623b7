package capture_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/repsim/capture"
	"github.com/hupe1980/repsim/tensor"
	"github.com/hupe1980/repsim/testutil"
)

func TestNewLayerNotFound(t *testing.T) {
	model := testutil.NewStaticModel().AddLayer("fc1", nil)

	_, err := capture.New(model, "fc2")
	var notFound *capture.LayerNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "fc2", notFound.Name)
}

func TestActivationsBeforeForward(t *testing.T) {
	model := testutil.NewStaticModel().AddLayer("fc1", nil)

	c, err := capture.New(model, "fc1")
	require.NoError(t, err)

	_, err = c.Activations()
	assert.ErrorIs(t, err, capture.ErrNoActivations)
}

func TestCaptureAccumulates(t *testing.T) {
	model := testutil.NewStaticModel().AddLayer("fc1", nil)

	c, err := capture.New(model, "fc1")
	require.NoError(t, err)

	_, err = model.Forward(tensor.NewWithData([]float64{1, 2, 3, 4}, 2, 2))
	require.NoError(t, err)
	_, err = model.Forward(tensor.NewWithData([]float64{5, 6}, 1, 2))
	require.NoError(t, err)

	act, err := c.Activations()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, act.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, act.Data())
}

func TestCaptureRank4(t *testing.T) {
	model := testutil.NewStaticModel().AddLayer("conv1", nil)

	c, err := capture.New(model, "conv1")
	require.NoError(t, err)

	rng := testutil.NewRNG(1)
	_, err = model.Forward(rng.GaussianTensor4(2, 3, 4, 4))
	require.NoError(t, err)
	_, err = model.Forward(rng.GaussianTensor4(3, 3, 4, 4))
	require.NoError(t, err)

	act, err := c.Activations()
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3, 4, 4}, act.Shape())
}

func TestCaptureOwnsBuffer(t *testing.T) {
	// The first captured tensor is cloned, so later writes through the
	// model's output do not leak into the buffer.
	out := tensor.NewWithData([]float64{1, 2, 3, 4}, 2, 2)
	model := testutil.NewStaticModel().AddLayer("fc1", func(*tensor.Dense) *tensor.Dense { return out })

	c, err := capture.New(model, "fc1")
	require.NoError(t, err)

	_, err = model.Forward(tensor.New(1))
	require.NoError(t, err)
	out.Set(99, 0, 0)

	act, err := c.Activations()
	require.NoError(t, err)
	assert.Equal(t, 1.0, act.At(0, 0))
}

func TestCaptureRankErrorLatched(t *testing.T) {
	model := testutil.NewStaticModel().AddLayer("fc1", func(in *tensor.Dense) *tensor.Dense { return in })

	c, err := capture.New(model, "fc1", capture.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	_, err = model.Forward(tensor.New(2, 2, 2))
	require.NoError(t, err)

	_, err = c.Activations()
	var rankErr *capture.RankError
	require.ErrorAs(t, err, &rankErr)
	assert.Equal(t, 3, rankErr.Rank)

	// Clear resets the latched error.
	c.Clear()
	_, err = model.Forward(tensor.New(2, 2))
	require.NoError(t, err)
	_, err = c.Activations()
	assert.NoError(t, err)
}

func TestCaptureShapeMismatchLatched(t *testing.T) {
	model := testutil.NewStaticModel().AddLayer("fc1", nil)

	c, err := capture.New(model, "fc1", capture.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	_, err = model.Forward(tensor.New(2, 3))
	require.NoError(t, err)
	_, err = model.Forward(tensor.New(2, 4))
	require.NoError(t, err)

	_, err = c.Activations()
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	model := testutil.NewStaticModel().AddLayer("fc1", nil)

	c, err := capture.New(model, "fc1")
	require.NoError(t, err)

	_, err = model.Forward(tensor.New(2, 2))
	require.NoError(t, err)
	c.Clear()

	_, err = c.Activations()
	assert.ErrorIs(t, err, capture.ErrNoActivations)

	// The capture stays attached after Clear.
	_, err = model.Forward(tensor.New(2, 2))
	require.NoError(t, err)
	_, err = c.Activations()
	assert.NoError(t, err)
}

func TestDetach(t *testing.T) {
	model := testutil.NewStaticModel().AddLayer("fc1", nil)

	c, err := capture.New(model, "fc1")
	require.NoError(t, err)

	_, err = model.Forward(tensor.New(2, 2))
	require.NoError(t, err)
	c.Detach()
	_, err = model.Forward(tensor.New(2, 2))
	require.NoError(t, err)

	// Only the pre-detach pass was recorded.
	act, err := c.Activations()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, act.Shape())

	// Detach is idempotent.
	c.Detach()
}

func TestName(t *testing.T) {
	model := testutil.NewStaticModel().AddLayer("fc1", nil)
	c, err := capture.New(model, "fc1")
	require.NoError(t, err)
	assert.Equal(t, "fc1", c.Name())
}
