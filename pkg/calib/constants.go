// Package calib turns raw ADC codes from the on-die temperature and
// reference-voltage sensors into millivolts and degrees Celsius using the
// factory calibration constants and a two-point linear model.
package calib

import (
	"fmt"

	"github.com/itohio/dietemp/pkg/errcode"
)

// RawCode is a single ADC conversion result, 0..MaxCode.
type RawCode uint16

// MaxCode returns the largest code of a bits-wide converter.
func MaxCode(bits int) RawCode {
	return RawCode(uint32(1)<<uint(bits) - 1)
}

// ID names a factory calibration constant.
type ID uint8

const (
	TSCalLow  ID = iota // temperature sensor code at Reference.TempLowC
	TSCalHigh           // temperature sensor code at Reference.TempHighC
	VrefCal             // reference-voltage sensor code at calibration time
)

func (id ID) String() string {
	switch id {
	case TSCalLow:
		return "ts_cal_low"
	case TSCalHigh:
		return "ts_cal_high"
	case VrefCal:
		return "vref_cal"
	default:
		return fmt.Sprintf("constant(%d)", uint8(id))
	}
}

// Provider reads factory-programmed calibration constants. It hides how the
// values are stored (fixed flash addresses, a firmware query, a config file).
type Provider interface {
	ReadConstant(id ID) (uint16, error)
}

// Reference holds the fixed points the factory constants were taken at.
type Reference struct {
	TempLowC      float64 // °C at which TSCalLow was measured
	TempHighC     float64 // °C at which TSCalHigh was measured
	VrefNominalMV float64 // nominal internal reference voltage
}

// DefaultReference returns the reference points of the STM32F3 family.
func DefaultReference() Reference {
	return Reference{
		TempLowC:      30.0,
		TempHighC:     110.0,
		VrefNominalMV: 1210.0,
	}
}

// Constants is the immutable set of factory calibration values.
type Constants struct {
	TSCalLow  RawCode
	TSCalHigh RawCode
	VrefCal   RawCode
	Reference
}

// Load reads the three calibration constants from p. It is meant to be
// called once at startup; failures are not retried.
func Load(p Provider, ref Reference) (Constants, error) {
	var raw [3]uint16
	for _, id := range []ID{TSCalLow, TSCalHigh, VrefCal} {
		v, err := p.ReadConstant(id)
		if err != nil {
			return Constants{}, errcode.Wrap(errcode.CalibrationUnavailable, "read "+id.String(), err)
		}
		raw[id] = v
	}

	c := Constants{
		TSCalLow:  RawCode(raw[TSCalLow]),
		TSCalHigh: RawCode(raw[TSCalHigh]),
		VrefCal:   RawCode(raw[VrefCal]),
		Reference: ref,
	}
	if err := c.Validate(); err != nil {
		return Constants{}, err
	}
	return c, nil
}

// Validate checks the invariants a model can be derived from.
func (c Constants) Validate() error {
	if c.VrefCal == 0 {
		return errcode.New(errcode.CalibrationUnavailable, "validate", "vref_cal is zero")
	}
	if c.TSCalLow == c.TSCalHigh {
		return errcode.New(errcode.DegenerateCalibration, "validate",
			fmt.Sprintf("ts_cal_low and ts_cal_high are both %d", c.TSCalLow))
	}
	return nil
}
