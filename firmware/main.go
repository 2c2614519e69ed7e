//go:build tinygo

//go:generate tinygo flash -target=stm32f4disco

package main

import (
	"errors"
	"machine"
	"runtime/volatile"
	"time"
	"unsafe"

	"device/stm32"

	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/wire"
)

var (
	errUnknownChannel    = errors.New("unknown channel")
	errUnknownConstant   = errors.New("unknown constant")
	errConversionTimeout = errors.New("conversion timeout")
	errLineTooLong       = errors.New("line too long")

	lineBuffer [LINE_BUFFER_SIZE]byte
	linePos    int
	overflow   bool
)

func main() {
	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	machine.InitADC()
	(*volatile.Register32)(unsafe.Pointer(uintptr(ADDR_ADC_CCR))).SetBits(ADC_CCR_TSVREFE)
	time.Sleep(10 * time.Microsecond) // sensor start-up

	var die onDie
	for {
		processSerial(die)
		time.Sleep(100 * time.Microsecond)
	}
}

// processSerial answers every complete request line received so far.
func processSerial(h wire.Handler) {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' || data == '\r' {
			switch {
			case overflow:
				reply("E " + errLineTooLong.Error())
			case linePos > 0:
				reply(wire.Respond(string(lineBuffer[:linePos]), h))
			}
			linePos = 0
			overflow = false
			continue
		}

		if linePos == len(lineBuffer) {
			overflow = true
			continue
		}
		lineBuffer[linePos] = data
		linePos++
	}
}

func reply(s string) {
	uart.Write([]byte(s))
	uart.Write([]byte{'\n'})
}

// onDie serves conversions and factory constants of the chip itself.
type onDie struct{}

func (onDie) Convert(sym string) (uint16, error) {
	switch sym {
	case wire.Temperature:
		return convert(CH_TEMPERATURE)
	case wire.Reference:
		return convert(CH_VREFINT)
	}
	return 0, errUnknownChannel
}

func (onDie) Constant(id uint8) (uint16, error) {
	switch calib.ID(id) {
	case calib.TSCalLow:
		return readFactory(ADDR_TS_CAL1), nil
	case calib.TSCalHigh:
		return readFactory(ADDR_TS_CAL2), nil
	case calib.VrefCal:
		return readFactory(ADDR_VREFINT_CAL), nil
	}
	return 0, errUnknownConstant
}

func readFactory(addr uintptr) uint16 {
	return volatile.LoadUint16((*uint16)(unsafe.Pointer(addr)))
}

// convert runs a single regular conversion on ch (10..18).
func convert(ch uint32) (uint16, error) {
	stm32.ADC1.SMPR1.ReplaceBits(SAMPLE_TIME, 0x7, uint8((ch-10)*3))
	stm32.ADC1.SQR3.Set(ch)
	stm32.ADC1.CR2.SetBits(stm32.ADC_CR2_SWSTART)

	start := time.Now()
	for !stm32.ADC1.SR.HasBits(stm32.ADC_SR_EOC) {
		if time.Since(start) > CONVERSION_TIMEOUT {
			return 0, errConversionTimeout
		}
	}
	return uint16(stm32.ADC1.DR.Get()), nil
}
