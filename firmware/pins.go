//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/itohio/dietemp/pkg/wire"
)

const (
	UART_BAUD_RATE = 115200

	// STM32F40x ADC1 internal channels.
	CH_TEMPERATURE = 16
	CH_VREFINT     = 17

	// Factory calibration values in system memory, measured at VDDA = 3.3 V.
	ADDR_TS_CAL1     = 0x1FFF7A2C // 30 °C
	ADDR_TS_CAL2     = 0x1FFF7A2E // 110 °C
	ADDR_VREFINT_CAL = 0x1FFF7A2A

	// ADC common control register and its temperature/VREFINT enable bit.
	ADDR_ADC_CCR    = 0x40012304
	ADC_CCR_TSVREFE = 1 << 23

	// 480 cycles; the sensor needs at least 10 µs of sampling.
	SAMPLE_TIME        = 7
	CONVERSION_TIMEOUT = 10 * time.Millisecond

	LINE_BUFFER_SIZE = wire.MaxLine
)

var uart = machine.Serial
