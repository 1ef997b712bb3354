package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramPercentiles(t *testing.T) {
	tracker := NewLatency(true)
	for ms := 1; ms <= 100; ms++ {
		tracker.Add(float64(ms))
	}

	assert.Equal(t, int64(100), tracker.Count())
	assert.InDelta(t, 50.5, tracker.Avg(), 0.001)
	assert.Equal(t, 49.5, tracker.Percentile(50))
	assert.Equal(t, 99.5, tracker.Percentile(100))
	assert.Equal(t, 0.5, tracker.Percentile(1))
}

func TestHistogramTierWidths(t *testing.T) {
	tracker := NewLatency(true)
	tracker.Add(105)
	assert.Equal(t, 105.0, tracker.Percentile(50))

	tracker = NewLatency(true)
	tracker.Add(1050)
	assert.Equal(t, 1050.0, tracker.Percentile(50))

	tracker = NewLatency(true)
	tracker.Add(10500)
	assert.Equal(t, 10500.0, tracker.Percentile(50))
}

func TestHistogramPercentileMonotone(t *testing.T) {
	tracker := NewLatency(true)
	for _, ms := range []float64{3, 7, 12, 48, 150, 900, 2500} {
		tracker.Add(ms)
	}

	prev := 0.0
	for p := 1.0; p <= 100; p++ {
		v := tracker.Percentile(p)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestHistogramHasNoSamples(t *testing.T) {
	tracker := NewLatency(true)
	tracker.Add(5)
	assert.Nil(t, tracker.Samples())
}

func TestExactPercentiles(t *testing.T) {
	tracker := NewLatency(false)
	for _, ms := range []float64{30, 10, 20, 40} {
		tracker.Add(ms)
	}

	assert.Equal(t, 20.0, tracker.Percentile(50))
	assert.Equal(t, 10.0, tracker.Percentile(25))
	assert.Equal(t, 40.0, tracker.Percentile(100))
	assert.Equal(t, 25.0, tracker.Avg())

	require.Len(t, tracker.Samples(), 4)
	assert.Equal(t, []float64{30, 10, 20, 40}, tracker.Samples())
}

func TestEmptyTrackersReturnZero(t *testing.T) {
	for _, histogram := range []bool{true, false} {
		tracker := NewLatency(histogram)
		assert.Equal(t, 0.0, tracker.Percentile(99))
		assert.Equal(t, 0.0, tracker.Avg())
		assert.Equal(t, int64(0), tracker.Count())
	}
}
