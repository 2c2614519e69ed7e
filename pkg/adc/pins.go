package adc

import (
	"context"
	"fmt"

	"github.com/itohio/dietemp/pkg/calib"
	"periph.io/x/conn/v3/analog"
)

// Pins reads channels from periph analog pins, for hosts where the sensor
// and reference are wired to an ADC that periph drives directly.
type Pins map[Channel]analog.PinADC

// Read converts on the pin mapped to ch and returns its raw code.
func (p Pins) Read(ctx context.Context, ch Channel) (calib.RawCode, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	pin, ok := p[ch]
	if !ok || pin == nil {
		return 0, fmt.Errorf("no pin mapped to %s channel", ch)
	}
	s, err := pin.Read()
	if err != nil {
		return 0, fmt.Errorf("read %s channel: %w", ch, err)
	}
	if s.Raw < 0 || s.Raw > 0xffff {
		return 0, fmt.Errorf("%s channel code out of range: %d", ch, s.Raw)
	}
	return calib.RawCode(s.Raw), nil
}
