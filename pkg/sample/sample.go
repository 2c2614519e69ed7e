package sample

import (
	"fmt"
	"time"

	"github.com/itohio/dietemp/pkg/calib"
	"periph.io/x/conn/v3/physic"
)

// Sample is one bracketed acquisition: a temperature sensor code and the
// drift-compensated reference code it is converted against.
type Sample struct {
	Raw          calib.RawCode
	ReferenceRaw calib.RawCode
	Timestamp    time.Time
}

// Phase is the sampling loop state a Reading was produced in.
type Phase uint8

const (
	Warmup Phase = iota // supply only, reference settling
	Steady              // full temperature conversion
)

func (p Phase) String() string {
	switch p {
	case Warmup:
		return "warmup"
	case Steady:
		return "steady"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Reading is the output of one loop iteration.
type Reading struct {
	Timestamp    time.Time
	Phase        Phase
	TemperatureC float64 // set in the Steady phase only
	SupplyMV     float64
	Err          error // non-nil marks a degraded reading
}

// HasTemperature reports whether TemperatureC carries a converted value.
func (r Reading) HasTemperature() bool {
	return r.Err == nil && r.Phase == Steady
}

// Temperature returns TemperatureC as a periph physic value.
func (r Reading) Temperature() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(r.TemperatureC*float64(physic.Celsius))
}

// Supply returns SupplyMV as a periph physic value.
func (r Reading) Supply() physic.ElectricPotential {
	return physic.ElectricPotential(r.SupplyMV * float64(physic.MilliVolt))
}

func (r Reading) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s error: %v", r.Phase, r.Err)
	case r.Phase == Warmup:
		return fmt.Sprintf("warmup supply=%s", r.Supply())
	default:
		return fmt.Sprintf("temperature=%s supply=%s", r.Temperature(), r.Supply())
	}
}
