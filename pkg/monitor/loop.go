// Package monitor runs the periodic acquisition loop and fans its readings
// out to sinks.
package monitor

import (
	"context"
	"log"
	"time"

	"github.com/itohio/dietemp/pkg/adc"
	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/errcode"
	"github.com/itohio/dietemp/pkg/sample"
)

const (
	DefaultWarmup   = 10
	DefaultInterval = 100 * time.Millisecond
)

// Thermometer converts bracketed codes into physical values.
// *calib.Calibration implements it.
type Thermometer interface {
	Celsius(raw, ref calib.RawCode) (float64, error)
	SupplyMillivolts(ref calib.RawCode) (float64, error)
}

var _ Thermometer = (*calib.Calibration)(nil)

// Options configures a Loop.
type Options struct {
	Warmup   int           // iterations reporting supply only
	Interval time.Duration // delay between iterations
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{Warmup: DefaultWarmup, Interval: DefaultInterval}
}

// Loop acquires one reading per iteration. It starts in the Warmup phase,
// where only the supply voltage is reported while the reference settles,
// and moves to the Steady phase for good after Options.Warmup iterations.
// A Loop is driven by a single goroutine.
type Loop struct {
	src  adc.Source
	th   Thermometer
	sink Sink
	opts Options

	phase  sample.Phase
	warmed int
}

// New creates a Loop. The thermometer must already be derived from the
// factory constants; the loop never touches calibration state.
func New(src adc.Source, th Thermometer, sink Sink, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Warmup < 0 {
		opts.Warmup = 0
	}
	if sink == nil {
		sink = Discard
	}

	l := &Loop{src: src, th: th, sink: sink, opts: opts, phase: sample.Steady}
	if opts.Warmup > 0 {
		l.phase = sample.Warmup
	}
	return l
}

// Phase returns the phase the next iteration runs in.
func (l *Loop) Phase() sample.Phase { return l.phase }

// Step runs a single iteration and reports its reading.
func (l *Loop) Step(ctx context.Context) sample.Reading {
	r := l.iterate(ctx)
	l.sink.Report(r)
	return r
}

// Run iterates until ctx is cancelled, waiting Options.Interval between
// iterations, and returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(l.opts.Interval)
	defer timer.Stop()

	for {
		r := l.iterate(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		l.sink.Report(r)

		timer.Reset(l.opts.Interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Loop) iterate(ctx context.Context) sample.Reading {
	if l.phase == sample.Warmup {
		r := l.warmup(ctx)
		l.warmed++
		if l.warmed >= l.opts.Warmup {
			l.phase = sample.Steady
			log.Printf("Reference settled after %d warmup iterations", l.warmed)
		}
		return r
	}
	return l.steady(ctx)
}

func (l *Loop) warmup(ctx context.Context) sample.Reading {
	r := sample.Reading{Phase: sample.Warmup}

	ref, err := l.src.Read(ctx, adc.Reference)
	r.Timestamp = time.Now()
	if err != nil {
		r.Err = errcode.Wrap(errcode.AcquisitionFailed, "read reference", err)
		return r
	}
	r.SupplyMV, r.Err = l.th.SupplyMillivolts(ref)
	return r
}

func (l *Loop) steady(ctx context.Context) sample.Reading {
	r := sample.Reading{Phase: sample.Steady}

	s, err := sample.Bracket(ctx, l.src)
	if err != nil {
		r.Timestamp = time.Now()
		r.Err = err
		return r
	}
	r.Timestamp = s.Timestamp

	// A zero reference fails here, so Celsius only runs for usable samples.
	if r.SupplyMV, err = l.th.SupplyMillivolts(s.ReferenceRaw); err != nil {
		r.Err = err
		return r
	}
	if r.TemperatureC, err = l.th.Celsius(s.Raw, s.ReferenceRaw); err != nil {
		r.Err = err
		return r
	}
	return r
}
