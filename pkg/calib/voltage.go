package calib

import (
	"fmt"

	"github.com/itohio/dietemp/pkg/errcode"
)

// Converter maps raw codes to absolute millivolts using a reference-voltage
// code sampled alongside them, which cancels supply drift.
type Converter struct {
	consts  Constants
	maxCode RawCode
}

// NewConverter returns a Converter for a bits-wide ADC.
func NewConverter(bits int, c Constants) (*Converter, error) {
	if bits < 1 || bits > 16 {
		return nil, fmt.Errorf("unsupported ADC resolution: %d bits", bits)
	}
	return &Converter{
		consts:  c,
		maxCode: MaxCode(bits),
	}, nil
}

// Constants returns the calibration constants the converter was built with.
func (cv *Converter) Constants() Constants { return cv.consts }

// MaxCode returns the full-scale code of the converter.
func (cv *Converter) MaxCode() RawCode { return cv.maxCode }

// SupplyMillivolts reconstructs the analog supply (full-scale) voltage from a
// live reference code.
func (cv *Converter) SupplyMillivolts(ref RawCode) (float64, error) {
	if ref == 0 {
		return 0, errcode.New(errcode.InvalidReference, "supply", "reference code is zero")
	}
	return cv.consts.VrefNominalMV * float64(cv.maxCode) / float64(ref), nil
}

// Millivolts converts raw into millivolts against the reference code ref.
// raw is not clamped to MaxCode.
func (cv *Converter) Millivolts(raw, ref RawCode) (float64, error) {
	if ref == 0 {
		return 0, errcode.New(errcode.InvalidReference, "millivolts", "reference code is zero")
	}
	// Same as raw * (supply / maxCode), ordered so raw == ref yields the
	// nominal reference voltage exactly.
	return float64(raw) * cv.consts.VrefNominalMV / float64(ref), nil
}
