package monitor

import (
	"log"
	"sync"

	"github.com/itohio/dietemp/pkg/sample"
)

// Sink receives every reading the loop produces, degraded ones included.
// Report must not block for long; the loop waits for it.
type Sink interface {
	Report(r sample.Reading)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r sample.Reading)

func (f SinkFunc) Report(r sample.Reading) { f(r) }

// Discard drops all readings.
var Discard Sink = SinkFunc(func(sample.Reading) {})

// Tee reports each reading to every sink in order.
type Tee []Sink

func (t Tee) Report(r sample.Reading) {
	for _, s := range t {
		if s != nil {
			s.Report(r)
		}
	}
}

// ChanSink forwards readings into a channel so they can be filtered or
// consumed on another goroutine. Readings are dropped when the channel is full.
type ChanSink chan sample.Reading

func (c ChanSink) Report(r sample.Reading) {
	select {
	case c <- r:
	default:
		log.Printf("Reading channel full, dropping reading")
	}
}

// Drain reports every reading from in to sink until in is closed.
func Drain(in <-chan sample.Reading, sink Sink) {
	for r := range in {
		sink.Report(r)
	}
}

// Filtered returns a sink that passes readings through f on its own
// goroutine before delivering them to sink. stop closes the stream and
// waits until every queued reading has been delivered.
func Filtered(sink Sink, f sample.Filter, bufSize int) (in Sink, stop func()) {
	ch := make(ChanSink, bufSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Drain(f(ch), sink)
	}()

	var once sync.Once
	return ch, func() {
		once.Do(func() { close(ch) })
		<-done
	}
}
