package report

import (
	"time"

	"github.com/itohio/dietemp/pkg/sample"
)

// Payload is the JSON form of a reading, shared by MQTT and HTTP.
type Payload struct {
	Timestamp    time.Time `json:"timestamp"`
	Phase        string    `json:"phase"`
	TemperatureC *float64  `json:"temperature_c,omitempty"`
	SupplyMV     *float64  `json:"supply_mv,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// NewPayload converts r. Degraded readings carry only the error.
func NewPayload(r sample.Reading) Payload {
	p := Payload{
		Timestamp: r.Timestamp.UTC(),
		Phase:     r.Phase.String(),
	}
	if r.Err != nil {
		p.Error = r.Err.Error()
		return p
	}

	supply := r.SupplyMV
	p.SupplyMV = &supply
	if r.HasTemperature() {
		temp := r.TemperatureC
		p.TemperatureC = &temp
	}
	return p
}
