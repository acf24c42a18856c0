package analytics

import (
	"math"
	"testing"

	"github.com/indcloud/console/data"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 {
	return &v
}

func TestAccumulatorEmpty(t *testing.T) {
	a := NewAccumulator()
	require.Nil(t, a.Min())
	require.Nil(t, a.Max())
	require.Nil(t, a.Avg())
	require.Zero(t, a.Count())

	a.Add(math.NaN())
	require.Nil(t, a.Avg())
}

func TestAccumulator(t *testing.T) {
	a := NewAccumulator()
	for _, v := range []float64{-3, 10, 2} {
		a.Add(v)
	}
	require.Equal(t, -3.0, *a.Min())
	require.Equal(t, 10.0, *a.Max())
	require.Equal(t, 3.0, *a.Avg())
	require.Equal(t, 3, a.Count())

	// negative only series must not report a max of 0
	neg := NewAccumulator()
	neg.Add(-5)
	neg.Add(-7)
	require.Equal(t, -5.0, *neg.Max())
	require.Equal(t, -7.0, *neg.Min())

	a.Merge(neg)
	require.Equal(t, -7.0, *a.Min())
	require.Equal(t, 5, a.Count())

	a.Reset()
	require.Nil(t, a.Min())
}

func TestAccumulatorPoints(t *testing.T) {
	a := NewAccumulator()
	n := a.AddPoints([]data.AggregatePoint{
		{Value: fp(1)},
		{Value: nil},
		{Value: fp(3)},
	})
	require.Equal(t, 2, n)

	s := a.Summary()
	require.Equal(t, 2, s.Samples)
	require.Equal(t, 2.0, *s.Avg)
}
