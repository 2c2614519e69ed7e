package calib

import "fmt"

// Static serves calibration constants recorded ahead of time, e.g. read out
// of a chip once with a debugger and kept in the configuration file.
type Static map[ID]uint16

var _ Provider = Static(nil)

// NewStatic returns a Static provider holding the three constants.
func NewStatic(tsCalLow, tsCalHigh, vrefCal uint16) Static {
	return Static{
		TSCalLow:  tsCalLow,
		TSCalHigh: tsCalHigh,
		VrefCal:   vrefCal,
	}
}

// ReadConstant implements Provider.
func (s Static) ReadConstant(id ID) (uint16, error) {
	v, ok := s[id]
	if !ok {
		return 0, fmt.Errorf("no value for %s", id)
	}
	return v, nil
}
