package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurvesRecordEveryEpoch(t *testing.T) {
	c := NewCurves(3)
	require.Equal(t, 3, c.Len())
	assert.False(t, c.Complete())

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(i, float64(3-i), float64(4-i)))
	}
	assert.True(t, c.Complete())
	assert.True(t, c.Finite())
	assert.Equal(t, []float64{3, 2, 1}, c.Train)
	assert.Equal(t, []float64{4, 3, 2}, c.Valid)
}

func TestCurvesRejectOutOfRange(t *testing.T) {
	c := NewCurves(2)
	assert.Error(t, c.Set(2, 1, 1))
	assert.Error(t, c.Set(-1, 1, 1))
}

func TestCurvesFinite(t *testing.T) {
	c := NewCurves(2)
	require.NoError(t, c.Set(0, 1, math.NaN()))
	assert.False(t, c.Finite())

	c = NewCurves(2)
	require.NoError(t, c.Set(1, math.Inf(1), 1))
	assert.False(t, c.Finite())
}
