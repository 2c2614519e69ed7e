package sample

import (
	"time"
)

// Filter transforms a stream of readings.
type Filter func(in <-chan Reading) <-chan Reading

// NewAveragingFilter returns a filter that replaces each steady reading with
// the mean of the last windowSize steady readings. Warmup and degraded
// readings pass through untouched and do not enter the window.
func NewAveragingFilter(windowSize int, bufSize int) Filter {
	if windowSize <= 0 {
		windowSize = 1
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan Reading) <-chan Reading {
		out := make(chan Reading, bufSize)

		go func() {
			defer close(out)

			window := make([]Reading, 0, windowSize)
			for r := range in {
				if r.HasTemperature() {
					if len(window) == windowSize {
						window = window[1:]
					}
					window = append(window, r)
					r = Average(window)
				}
				out <- r
			}
		}()

		return out
	}
}

// Average returns the mean of the given readings, stamped with the last
// reading's timestamp and phase.
func Average(readings []Reading) Reading {
	if len(readings) == 0 {
		return Reading{}
	}

	var sumTemp, sumSupply float64
	for _, r := range readings {
		sumTemp += r.TemperatureC
		sumSupply += r.SupplyMV
	}

	last := readings[len(readings)-1]
	n := float64(len(readings))
	return Reading{
		Timestamp:    last.Timestamp,
		Phase:        last.Phase,
		TemperatureC: sumTemp / n,
		SupplyMV:     sumSupply / n,
	}
}

// Span returns the time covered by readings.
func Span(readings []Reading) time.Duration {
	if len(readings) < 2 {
		return 0
	}
	return readings[len(readings)-1].Timestamp.Sub(readings[0].Timestamp)
}
