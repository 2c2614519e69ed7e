package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/itohio/dietemp/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steadyAt(t0 time.Time, offset time.Duration, tempC float64) sample.Reading {
	return sample.Reading{Timestamp: t0.Add(offset), Phase: sample.Steady, TemperatureC: tempC, SupplyMV: 3300}
}

func TestNewHistory(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultWindow, h.window)
	assert.Empty(t, h.Readings())
	assert.Empty(t, h.Rates())

	_, ok := h.Latest()
	assert.False(t, ok)
}

func TestHistory_Rates(t *testing.T) {
	h := NewHistory(time.Minute)
	t0 := time.Now()

	h.Report(steadyAt(t0, 0, 30))
	assert.Len(t, h.Readings(), 1)
	assert.Empty(t, h.Rates())

	h.Report(steadyAt(t0, 500*time.Millisecond, 31))
	h.Report(steadyAt(t0, time.Second, 30.5))

	rates := h.Rates()
	require.Len(t, rates, 2)
	assert.InDelta(t, 2.0, rates[0], 1e-9)
	assert.InDelta(t, -1.0, rates[1], 1e-9)
}

func TestHistory_OnlyTemperatureReadingsEnterWindow(t *testing.T) {
	h := NewHistory(time.Minute)
	t0 := time.Now()

	warm := sample.Reading{Timestamp: t0, Phase: sample.Warmup, SupplyMV: 3300}
	bad := sample.Reading{Timestamp: t0, Phase: sample.Steady, Err: errors.New("boom")}

	h.Report(warm)
	h.Report(steadyAt(t0, time.Second, 25))
	h.Report(bad)

	assert.Len(t, h.Readings(), 1)
	assert.Equal(t, 3, h.Count())

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Error(t, latest.Err)
}

func TestHistory_WindowRemoval(t *testing.T) {
	h := NewHistory(time.Second)
	t0 := time.Now()

	for i := range 10 {
		h.Report(steadyAt(t0, time.Duration(i)*250*time.Millisecond, float64(i)))
	}

	readings := h.Readings()
	rates := h.Rates()
	require.NotEmpty(t, readings)
	assert.Len(t, rates, len(readings)-1)

	last := readings[len(readings)-1]
	for _, r := range readings {
		assert.True(t, r.Timestamp.After(last.Timestamp.Add(-time.Second)))
	}
	assert.Equal(t, 9.0, last.TemperatureC)
	for _, rate := range rates {
		assert.InDelta(t, 4.0, rate, 1e-9)
	}
}

func TestHistory_DuplicateTimestampIgnored(t *testing.T) {
	h := NewHistory(time.Minute)
	t0 := time.Now()

	h.Report(steadyAt(t0, 0, 20))
	h.Report(steadyAt(t0, 0, 25))

	assert.Len(t, h.Readings(), 1)
	assert.Empty(t, h.Rates())
}

func TestHistory_OnUpdate(t *testing.T) {
	h := NewHistory(time.Minute)
	t0 := time.Now()

	var calls int
	var lastLen int
	h.OnUpdate(func(readings []sample.Reading, rates []float64) {
		calls++
		lastLen = len(readings)
		assert.Len(t, rates, max(len(readings)-1, 0))
	})

	h.Report(sample.Reading{Timestamp: t0, Phase: sample.Warmup})
	h.Report(steadyAt(t0, time.Second, 20))
	h.Report(steadyAt(t0, 2*time.Second, 21))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, lastLen)
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(time.Minute)
	h.Report(steadyAt(time.Now(), 0, 20))
	h.Reset()

	assert.Empty(t, h.Readings())
	assert.Equal(t, 0, h.Count())
}
