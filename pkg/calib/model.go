package calib

import (
	"fmt"

	"github.com/itohio/dietemp/pkg/errcode"
)

// Model is the linear millivolts to °C characteristic of the sensor.
type Model struct {
	Slope     float64 // °C per mV
	Intercept float64 // °C
}

// Derive builds the model from the two factory calibration points. At
// calibration time the live reference equals VrefCal, so both points are
// converted against it. The slope sign follows the data.
func Derive(cv *Converter) (Model, error) {
	c := cv.Constants()

	mvLow, err := cv.Millivolts(c.TSCalLow, c.VrefCal)
	if err != nil {
		return Model{}, errcode.Wrap(errcode.CalibrationUnavailable, "derive", err)
	}
	mvHigh, err := cv.Millivolts(c.TSCalHigh, c.VrefCal)
	if err != nil {
		return Model{}, errcode.Wrap(errcode.CalibrationUnavailable, "derive", err)
	}
	if mvHigh == mvLow {
		return Model{}, errcode.New(errcode.DegenerateCalibration, "derive",
			fmt.Sprintf("both calibration points map to %.3f mV", mvLow))
	}

	slope := (c.TempHighC - c.TempLowC) / (mvHigh - mvLow)
	return Model{
		Slope:     slope,
		Intercept: c.TempLowC - slope*mvLow,
	}, nil
}

// Celsius converts a temperature sensor code measured against ref.
func (m Model) Celsius(cv *Converter, raw, ref RawCode) (float64, error) {
	mv, err := cv.Millivolts(raw, ref)
	if err != nil {
		return 0, err
	}
	return m.Slope*mv + m.Intercept, nil
}
