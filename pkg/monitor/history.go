package monitor

import (
	"sync"
	"time"

	"github.com/itohio/dietemp/pkg/sample"
)

var _ Sink = (*History)(nil)

// DefaultWindow is the history span used when none is configured.
const DefaultWindow = 60 * time.Second

// History keeps the temperature readings of a trailing time window and the
// rate of change between consecutive readings.
//
// Only readings that carry a temperature enter the window. rates[i] is the
// change from readings[i] to readings[i+1] in °C/s, so n readings have n-1
// rates. The most recent reading of any kind is kept separately.
type History struct {
	window time.Duration

	mu       sync.RWMutex
	readings []sample.Reading
	rates    []float64
	latest   sample.Reading
	count    int

	cbMu      sync.RWMutex
	callbacks []func(readings []sample.Reading, rates []float64)
}

// NewHistory creates a History covering window.
func NewHistory(window time.Duration) *History {
	if window <= 0 {
		window = DefaultWindow
	}
	return &History{window: window}
}

// Report implements Sink.
func (h *History) Report(r sample.Reading) {
	h.mu.Lock()
	h.latest = r
	h.count++
	if !r.HasTemperature() {
		h.mu.Unlock()
		return
	}
	h.add(r)
	h.mu.Unlock()

	h.notify()
}

func (h *History) add(r sample.Reading) {
	if n := len(h.readings); n > 0 {
		prev := h.readings[n-1]
		dt := r.Timestamp.Sub(prev.Timestamp).Seconds()
		if dt <= 0 {
			// Out of order or duplicate timestamp; the rate is undefined.
			return
		}
		h.rates = append(h.rates, (r.TemperatureC-prev.TemperatureC)/dt)
	}
	h.readings = append(h.readings, r)

	cutoff := r.Timestamp.Add(-h.window)
	drop := 0
	for drop < len(h.readings)-1 && !h.readings[drop].Timestamp.After(cutoff) {
		drop++
	}
	if drop > 0 {
		h.readings = append(h.readings[:0], h.readings[drop:]...)
		h.rates = append(h.rates[:0], h.rates[drop:]...)
	}
}

// Readings returns a copy of the windowed readings, oldest first.
func (h *History) Readings() []sample.Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]sample.Reading(nil), h.readings...)
}

// Rates returns a copy of the rate of change series in °C/s.
func (h *History) Rates() []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]float64(nil), h.rates...)
}

// Latest returns the most recently reported reading, degraded or not, and
// whether anything was reported yet.
func (h *History) Latest() (sample.Reading, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.count > 0
}

// Count returns the number of readings reported so far.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Reset clears the window. Registered callbacks are kept.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readings = nil
	h.rates = nil
	h.latest = sample.Reading{}
	h.count = 0
}

// OnUpdate registers a callback invoked after each temperature reading is
// added. Callbacks receive copies and run on the reporting goroutine, so
// they should return quickly.
func (h *History) OnUpdate(cb func(readings []sample.Reading, rates []float64)) {
	h.cbMu.Lock()
	defer h.cbMu.Unlock()
	h.callbacks = append(h.callbacks, cb)
}

func (h *History) notify() {
	h.cbMu.RLock()
	callbacks := append(([]func([]sample.Reading, []float64))(nil), h.callbacks...)
	h.cbMu.RUnlock()
	if len(callbacks) == 0 {
		return
	}

	readings, rates := h.Readings(), h.Rates()
	for _, cb := range callbacks {
		if cb != nil {
			cb(readings, rates)
		}
	}
}
