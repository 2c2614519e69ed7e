// Package adc provides sources of raw ADC codes for the on-die temperature
// sensor and the internal reference-voltage sensor.
package adc

import (
	"context"
	"fmt"

	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/config"
)

// Channel is a logical ADC input.
type Channel uint8

const (
	Temperature Channel = iota // on-die temperature sensor
	Reference                  // internal reference voltage (VREFINT)
)

func (ch Channel) String() string {
	switch ch {
	case Temperature:
		return "temperature"
	case Reference:
		return "reference"
	default:
		return fmt.Sprintf("channel(%d)", uint8(ch))
	}
}

// Source performs one conversion on a channel. Read may block until the
// conversion completes; implementations allow a single outstanding read.
type Source interface {
	Read(ctx context.Context, ch Channel) (calib.RawCode, error)
}

// Device is a connectable source that also serves the factory calibration
// constants of the chip it talks to.
type Device interface {
	Source
	calib.Provider
	Connect() error
	Close() error
	IsConnected() bool
}

var (
	_ Device = (*Serial)(nil)
	_ Device = (*Mock)(nil)
	_ Source = Pins(nil)
)

// Open returns the device described by cfg, not yet connected: the simulated
// die when mock is set, the serial firmware otherwise.
func Open(cfg *config.Config, mock bool) Device {
	if mock {
		return NewMock(&cfg.Mock, cfg.Reference(), cfg.ADC.Bits)
	}
	return NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.Timeout)
}
