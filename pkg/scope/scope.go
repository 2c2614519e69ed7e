// Package scope provides a Fyne widget plotting die temperature and its
// rate of change over time.
package scope

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/dietemp/pkg/sample"
)

const defaultMaxPoints = 1000

// ratePoint places a rate of change between the two readings it was
// computed from.
type ratePoint struct {
	At    time.Time
	Value float64
}

// Scope is an oscilloscope-style widget. Temperature is drawn against the
// left axis, the rate of change against the right one.
type Scope struct {
	widget.BaseWidget

	window time.Duration

	mu       sync.RWMutex
	readings []sample.Reading // downsampled for display
	rates    []ratePoint
	status   string

	temp, rate axis
	xMin, xMax time.Time

	rateBuf   []ratePoint
	maxPoints int
}

// New creates a Scope showing at least window worth of time.
func New(window time.Duration) *Scope {
	s := &Scope{
		window:    window,
		readings:  make([]sample.Reading, 0, defaultMaxPoints),
		rates:     make([]ratePoint, 0, defaultMaxPoints),
		maxPoints: defaultMaxPoints,
	}
	s.autoScale()
	s.ExtendBaseWidget(s)
	return s
}

// UpdateData replaces the plotted data. readings and rates come from
// monitor.History. Call it on the Fyne goroutine (fyne.Do).
func (s *Scope) UpdateData(readings []sample.Reading, rates []float64) {
	s.mu.Lock()
	s.setData(readings, rates)
	s.mu.Unlock()

	s.Refresh()
}

// SetStatus sets the text shown in the top left corner of the plot.
func (s *Scope) SetStatus(text string) {
	s.mu.Lock()
	s.status = text
	s.mu.Unlock()

	s.Refresh()
}

func (s *Scope) setData(readings []sample.Reading, rates []float64) {
	s.readings = sample.DownsampleReadings(s.readings, readings, s.maxPoints)

	s.rateBuf = s.rateBuf[:0]
	for i, v := range rates {
		if i+1 >= len(readings) {
			break
		}
		a, b := readings[i].Timestamp, readings[i+1].Timestamp
		s.rateBuf = append(s.rateBuf, ratePoint{At: a.Add(b.Sub(a) / 2), Value: v})
	}
	s.rates = sample.Downsample(s.rates, s.rateBuf, s.maxPoints)

	s.autoScale()
}

func (s *Scope) autoScale() {
	temps := make([]float64, len(s.readings))
	for i, r := range s.readings {
		temps[i] = r.TemperatureC
	}
	s.temp = fit(temps, 1)

	rates := make([]float64, len(s.rates))
	for i, p := range s.rates {
		rates[i] = p.Value
	}
	s.rate = fit(rates, 0.1)

	if len(s.readings) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(s.window)
		return
	}
	s.xMin = s.readings[0].Timestamp
	s.xMax = s.readings[len(s.readings)-1].Timestamp
	if s.xMax.Sub(s.xMin) < s.window {
		s.xMax = s.xMin.Add(s.window)
	}
}

// CreateRenderer implements fyne.Widget.
func (s *Scope) CreateRenderer() fyne.WidgetRenderer {
	return newRenderer(s)
}

// axis is a value range mapped onto the plot height.
type axis struct {
	Min, Max float64
}

// fit returns the range of values with a 10% margin, at least minSpan wide.
func fit(values []float64, minSpan float64) axis {
	if len(values) == 0 {
		return axis{Min: 0, Max: minSpan}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi-lo < minSpan {
		mid := (hi + lo) / 2
		lo, hi = mid-minSpan/2, mid+minSpan/2
	}
	margin := (hi - lo) * 0.1
	return axis{Min: lo - margin, Max: hi + margin}
}

// scale maps v to a fraction of the axis, 0 at Min and 1 at Max.
func (a axis) scale(v float64) float32 {
	return float32((v - a.Min) / (a.Max - a.Min))
}

// at returns the value at fraction f of the axis.
func (a axis) at(f float64) float64 {
	return a.Min + f*(a.Max-a.Min)
}
