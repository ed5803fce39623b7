package downsample_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/repsim/downsample"
	"github.com/hupe1980/repsim/tensor"
	"github.com/hupe1980/repsim/testutil"
)

func TestParseMethod(t *testing.T) {
	m, err := downsample.ParseMethod("avg_pool")
	require.NoError(t, err)
	assert.Equal(t, downsample.MethodAvgPool, m)

	m, err = downsample.ParseMethod("dft")
	require.NoError(t, err)
	assert.Equal(t, downsample.MethodDFT, m)

	_, err = downsample.ParseMethod("bilinear")
	assert.ErrorIs(t, err, downsample.ErrUnsupportedMethod)
}

func TestFlattenFilter(t *testing.T) {
	// [1, 2, 2, 2]: channel 0 holds 1..4, channel 1 holds 5..8.
	in := tensor.NewWithData([]float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
	}, 1, 2, 2, 2)

	m, err := downsample.FlattenFilter(in)
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 4, r) // B·H·W
	assert.Equal(t, 2, c) // C

	// Row k is spatial position k; column is the channel.
	for k := 0; k < 4; k++ {
		assert.Equal(t, float64(k+1), m.At(k, 0))
		assert.Equal(t, float64(k+5), m.At(k, 1))
	}
}

func TestFlattenFilterRankError(t *testing.T) {
	_, err := downsample.FlattenFilter(tensor.New(3, 4))
	assert.ErrorIs(t, err, downsample.ErrInvalidShape)
}

func TestPerSample(t *testing.T) {
	in := tensor.NewWithData([]float64{
		1, 2, 3, 4, // sample 0, channel 0
		5, 6, 7, 8, // sample 0, channel 1
		9, 10, 11, 12, // sample 1, channel 0
		13, 14, 15, 16, // sample 1, channel 1
	}, 2, 2, 2, 2)

	ms, err := downsample.PerSample(in)
	require.NoError(t, err)
	require.Len(t, ms, 2)

	r, c := ms[0].Dims()
	assert.Equal(t, 2, r) // C
	assert.Equal(t, 4, c) // H·W
	assert.Equal(t, 1.0, ms[0].At(0, 0))
	assert.Equal(t, 8.0, ms[0].At(1, 3))
	assert.Equal(t, 9.0, ms[1].At(0, 0))
	assert.Equal(t, 16.0, ms[1].At(1, 3))

	_, err = downsample.PerSample(tensor.New(3, 4))
	assert.ErrorIs(t, err, downsample.ErrInvalidShape)
}

func TestSpatialFullSizeIsReshape(t *testing.T) {
	// size == H == W is a pure reshape: the method is not consulted, so both
	// methods agree element for element.
	rng := testutil.NewRNG(1)
	in := rng.GaussianTensor4(3, 2, 4, 4)

	avg, err := downsample.Spatial(in, 4, downsample.MethodAvgPool)
	require.NoError(t, err)
	dft, err := downsample.Spatial(in, 4, downsample.MethodDFT)
	require.NoError(t, err)
	require.Len(t, avg, 16)
	require.Len(t, dft, 16)

	for k := range avg {
		for bi := 0; bi < 3; bi++ {
			for ci := 0; ci < 2; ci++ {
				assert.Equal(t, avg[k].At(bi, ci), dft[k].At(bi, ci))
				assert.Equal(t, in.At(bi, ci, k/4, k%4), avg[k].At(bi, ci))
			}
		}
	}
}

func TestSpatialAvgPool(t *testing.T) {
	// 4x4 map pooled to 2x2: each output cell is the mean of a 2x2 block.
	in := tensor.NewWithData([]float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, 1, 1, 4, 4)

	ms, err := downsample.Spatial(in, 2, downsample.MethodAvgPool)
	require.NoError(t, err)
	require.Len(t, ms, 4)

	assert.InDelta(t, 3.5, ms[0].At(0, 0), 1e-12)  // mean(1,2,5,6)
	assert.InDelta(t, 5.5, ms[1].At(0, 0), 1e-12)  // mean(3,4,7,8)
	assert.InDelta(t, 11.5, ms[2].At(0, 0), 1e-12) // mean(9,10,13,14)
	assert.InDelta(t, 13.5, ms[3].At(0, 0), 1e-12) // mean(11,12,15,16)
}

func TestSpatialDFTConstant(t *testing.T) {
	// A spatially constant map has all energy at frequency zero, so the
	// truncated reconstruction is still spatially constant.
	in := tensor.New(2, 3, 8, 8)
	for bi := 0; bi < 2; bi++ {
		for ci := 0; ci < 3; ci++ {
			for hi := 0; hi < 8; hi++ {
				for wi := 0; wi < 8; wi++ {
					in.Set(float64(bi*3+ci+1), bi, ci, hi, wi)
				}
			}
		}
	}

	ms, err := downsample.Spatial(in, 4, downsample.MethodDFT)
	require.NoError(t, err)
	require.Len(t, ms, 16)

	for k := 1; k < 16; k++ {
		for bi := 0; bi < 2; bi++ {
			for ci := 0; ci < 3; ci++ {
				assert.InDelta(t, ms[0].At(bi, ci), ms[k].At(bi, ci), 1e-9)
			}
		}
	}
}

func TestSpatialDFTNonSquare(t *testing.T) {
	_, err := downsample.Spatial(tensor.New(1, 1, 4, 6), 2, downsample.MethodDFT)
	assert.ErrorIs(t, err, downsample.ErrInvalidShape)
}

func TestSpatialSizeError(t *testing.T) {
	_, err := downsample.Spatial(tensor.New(1, 1, 4, 4), 8, downsample.MethodAvgPool)
	var sizeErr *downsample.SizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 8, sizeErr.Size)
	assert.Equal(t, 4, sizeErr.H)
}

func TestSpatialUnsupportedMethod(t *testing.T) {
	_, err := downsample.Spatial(tensor.New(1, 1, 4, 4), 2, downsample.Method(9))
	assert.ErrorIs(t, err, downsample.ErrUnsupportedMethod)
}

func TestSpatialRankError(t *testing.T) {
	_, err := downsample.Spatial(tensor.New(3, 4), 2, downsample.MethodAvgPool)
	assert.ErrorIs(t, err, downsample.ErrInvalidShape)
}
