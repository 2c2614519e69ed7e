package adc

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/config"
)

// Mock simulates an MCU die: a temperature sensor following the factory
// calibration line and a reference whose supply settles after power-on.
type Mock struct {
	cfg     *config.MockConfig
	ref     calib.Reference
	maxCode float32
	now     func() time.Time

	mu          sync.Mutex
	connected   bool
	start       time.Time
	conversions int
	rng         *rand.Rand
}

// NewMock creates a simulated device for a bits-wide ADC.
func NewMock(cfg *config.MockConfig, ref calib.Reference, bits int) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}
	return &Mock{
		cfg:     cfg,
		ref:     ref,
		maxCode: float32(calib.MaxCode(bits)),
		now:     time.Now,
	}
}

// Connect simulates powering the die on.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.start = m.now()
	m.conversions = 0
	m.rng = rand.New(rand.NewSource(1))

	return nil
}

// Close stops the simulated device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// ReadConstant returns the simulated factory constants.
func (m *Mock) ReadConstant(id calib.ID) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return 0, fmt.Errorf("not connected")
	}
	switch id {
	case calib.TSCalLow:
		return m.cfg.TSCalLow, nil
	case calib.TSCalHigh:
		return m.cfg.TSCalHigh, nil
	case calib.VrefCal:
		return m.cfg.VrefCal, nil
	default:
		return 0, fmt.Errorf("unknown constant %s", id)
	}
}

// Read simulates one conversion on ch.
func (m *Mock) Read(ctx context.Context, ch Channel) (calib.RawCode, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return 0, fmt.Errorf("not connected")
	}

	m.conversions++
	if m.cfg.FailEvery > 0 && m.conversions%m.cfg.FailEvery == 0 {
		return 0, fmt.Errorf("simulated conversion failure on %s channel", ch)
	}

	supply := m.supplyMV(m.now().Sub(m.start))
	var mv float32
	switch ch {
	case Reference:
		mv = float32(m.ref.VrefNominalMV)
	case Temperature:
		mv = m.sensorMV(float32(m.cfg.TemperatureC))
	default:
		return 0, fmt.Errorf("unknown channel %s", ch)
	}

	code := mv * m.maxCode / supply
	if m.cfg.NoiseCodes > 0 {
		code += float32(m.rng.Intn(2*m.cfg.NoiseCodes+1) - m.cfg.NoiseCodes)
	}
	return m.clamp(code), nil
}

// calibratedSupplyMV is the supply at which the factory reference code was
// taken.
func (m *Mock) calibratedSupplyMV() float32 {
	if m.cfg.VrefCal == 0 {
		return m.maxCode
	}
	return float32(m.ref.VrefNominalMV) * m.maxCode / float32(m.cfg.VrefCal)
}

// supplyMV returns the simulated supply, decaying from SupplyMV+DriftMV
// towards SupplyMV after power-on.
func (m *Mock) supplyMV(elapsed time.Duration) float32 {
	supply := float32(m.cfg.SupplyMV)
	if supply == 0 {
		supply = m.calibratedSupplyMV()
	}
	if m.cfg.DriftMV != 0 && m.cfg.DriftTime > 0 {
		tau := float32(m.cfg.DriftTime.Seconds())
		supply += float32(m.cfg.DriftMV) * math32.Exp(-float32(elapsed.Seconds())/tau)
	}
	return supply
}

// sensorMV returns the sensor voltage at tempC on the factory line.
func (m *Mock) sensorMV(tempC float32) float32 {
	cal := m.calibratedSupplyMV()
	mvLow := float32(m.cfg.TSCalLow) * cal / m.maxCode
	mvHigh := float32(m.cfg.TSCalHigh) * cal / m.maxCode
	tLow, tHigh := float32(m.ref.TempLowC), float32(m.ref.TempHighC)
	if tHigh == tLow {
		return mvLow
	}
	return mvLow + (tempC-tLow)*(mvHigh-mvLow)/(tHigh-tLow)
}

func (m *Mock) clamp(code float32) calib.RawCode {
	switch {
	case math32.IsNaN(code), code <= 0:
		return 0
	case math32.IsInf(code, 1), code >= m.maxCode:
		return calib.RawCode(m.maxCode)
	default:
		return calib.RawCode(math32.Round(code))
	}
}
