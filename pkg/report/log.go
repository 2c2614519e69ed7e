// Package report contains the sinks readings are delivered to.
package report

import (
	"log"

	"github.com/itohio/dietemp/pkg/monitor"
	"github.com/itohio/dietemp/pkg/sample"
)

var _ monitor.Sink = (*Log)(nil)

// Log prints readings through a standard logger.
type Log struct {
	logger *log.Logger
}

// NewLog creates a Log writing to logger, or to the default logger if nil.
func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Report(r sample.Reading) {
	switch {
	case r.Err != nil:
		l.logger.Printf("Degraded %s reading: %v", r.Phase, r.Err)
	case r.Phase == sample.Warmup:
		l.logger.Printf("VCCA: %.0f mV (warming up)", r.SupplyMV)
	default:
		l.logger.Printf("Temperature: %.2f C, VCCA: %.0f mV", r.TemperatureC, r.SupplyMV)
	}
}
