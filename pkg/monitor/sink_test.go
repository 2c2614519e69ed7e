package monitor

import (
	"testing"
	"time"

	"github.com/itohio/dietemp/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTee(t *testing.T) {
	var a, b collector
	tee := Tee{&a, nil, &b, Discard}

	r := sample.Reading{Phase: sample.Steady, TemperatureC: 21}
	tee.Report(r)

	assert.Equal(t, []sample.Reading{r}, a.all())
	assert.Equal(t, []sample.Reading{r}, b.all())
}

func TestChanSink_DropsWhenFull(t *testing.T) {
	ch := make(ChanSink, 2)
	for i := range 3 {
		ch.Report(sample.Reading{TemperatureC: float64(i)})
	}
	require.Len(t, ch, 2)
	assert.Equal(t, 0.0, (<-ch).TemperatureC)
	assert.Equal(t, 1.0, (<-ch).TemperatureC)
}

func TestDrain_ThroughFilter(t *testing.T) {
	ch := make(ChanSink, 10)
	now := time.Now()
	for i := range 4 {
		ch.Report(sample.Reading{Timestamp: now, Phase: sample.Steady, TemperatureC: float64(10 * (i + 1))})
	}
	close(ch)

	var out collector
	Drain(sample.NewAveragingFilter(2, 4)(ch), &out)

	got := out.all()
	require.Len(t, got, 4)
	assert.InDelta(t, 10.0, got[0].TemperatureC, 1e-9)
	assert.InDelta(t, 15.0, got[1].TemperatureC, 1e-9)
	assert.InDelta(t, 25.0, got[2].TemperatureC, 1e-9)
	assert.InDelta(t, 35.0, got[3].TemperatureC, 1e-9)
}

func TestFiltered(t *testing.T) {
	var out collector
	in, stop := Filtered(&out, sample.NewAveragingFilter(3, 8), 8)

	t0 := time.Now()
	in.Report(sample.Reading{Timestamp: t0, Phase: sample.Warmup, SupplyMV: 3300})
	for i := range 3 {
		in.Report(sample.Reading{Timestamp: t0, Phase: sample.Steady, TemperatureC: float64(30 + 3*i)})
	}
	stop()
	stop()

	got := out.all()
	require.Len(t, got, 4)
	assert.Equal(t, sample.Warmup, got[0].Phase)
	assert.InDelta(t, 33.0, got[3].TemperatureC, 1e-9)
}
