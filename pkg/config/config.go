package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/dietemp/pkg/calib"
	"gopkg.in/yaml.v3"
)

// Calibration constant sources.
const (
	SourceDevice = "device" // ask the connected device (firmware or mock)
	SourceStatic = "static" // use the values recorded in this file
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	ADC         ADCConfig         `yaml:"adc"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Sampling    SamplingConfig    `yaml:"sampling"`
	Mock        MockConfig        `yaml:"mock"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Influx      InfluxConfig      `yaml:"influx"`
	HTTP        HTTPConfig        `yaml:"http"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	Timeout  time.Duration `yaml:"timeout"` // reply timeout per request
}

// ADCConfig describes the converter the codes come from.
type ADCConfig struct {
	Bits          int     `yaml:"bits"`
	VrefNominalMV float64 `yaml:"vref_nominal_mv"` // internal reference voltage (VREFINT)
}

// CalibrationConfig contains the calibration reference points and,
// for the static source, the factory constants.
type CalibrationConfig struct {
	Source    string  `yaml:"source"`
	TempLowC  float64 `yaml:"temp_low_c"`
	TempHighC float64 `yaml:"temp_high_c"`
	TSCalLow  uint16  `yaml:"ts_cal_low"`
	TSCalHigh uint16  `yaml:"ts_cal_high"`
	VrefCal   uint16  `yaml:"vref_cal"`
}

// SamplingConfig contains sampling loop parameters.
type SamplingConfig struct {
	WarmupIterations int           `yaml:"warmup_iterations"`
	Interval         time.Duration `yaml:"interval"`
	AverageReadings  int           `yaml:"average_readings"` // 0 = disabled
	HistoryWindow    time.Duration `yaml:"history_window"`
}

// MockConfig contains simulated die parameters.
type MockConfig struct {
	TemperatureC float64       `yaml:"temperature_c"`
	SupplyMV     float64       `yaml:"supply_mv"`  // 0 = supply the die was calibrated at
	DriftMV      float64       `yaml:"drift_mv"`   // supply excess right after power-on
	DriftTime    time.Duration `yaml:"drift_time"` // decay time constant of the excess
	NoiseCodes   int           `yaml:"noise_codes"`
	FailEvery    int           `yaml:"fail_every"` // fail every Nth conversion, 0 = never
	TSCalLow     uint16        `yaml:"ts_cal_low"`
	TSCalHigh    uint16        `yaml:"ts_cal_high"`
	VrefCal      uint16        `yaml:"vref_cal"`
}

// MQTTConfig contains MQTT publishing parameters. Credentials come from
// the environment.
type MQTTConfig struct {
	Broker   string `yaml:"broker"` // empty = disabled
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// InfluxConfig contains InfluxDB parameters. The token comes from the
// environment.
type InfluxConfig struct {
	URL    string `yaml:"url"` // empty = disabled
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
	Device string `yaml:"device"`
}

// HTTPConfig contains the status server parameters.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
			Timeout:  time.Second,
		},
		ADC: ADCConfig{
			Bits:          12,
			VrefNominalMV: 1210,
		},
		Calibration: CalibrationConfig{
			Source:    SourceDevice,
			TempLowC:  30,
			TempHighC: 110,
		},
		Sampling: SamplingConfig{
			WarmupIterations: 10,
			Interval:         100 * time.Millisecond,
			AverageReadings:  0,
			HistoryWindow:    60 * time.Second,
		},
		Mock: MockConfig{
			TemperatureC: 25,
			DriftMV:      40,
			DriftTime:    500 * time.Millisecond,
			NoiseCodes:   2,
			TSCalLow:     1738,
			TSCalHigh:    1287,
			VrefCal:      1528,
		},
		MQTT: MQTTConfig{
			Topic:    "dietemp/reading",
			ClientID: "dietemp",
		},
		Influx: InfluxConfig{
			Bucket: "dietemp",
			Device: "mcu",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports configuration values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.ADC.Bits < 1 || c.ADC.Bits > 16 {
		return fmt.Errorf("adc.bits must be in 1..16, got %d", c.ADC.Bits)
	}
	if c.ADC.VrefNominalMV <= 0 {
		return fmt.Errorf("adc.vref_nominal_mv must be > 0")
	}
	if c.Calibration.TempLowC == c.Calibration.TempHighC {
		return fmt.Errorf("calibration.temp_low_c and temp_high_c must differ")
	}
	switch c.Calibration.Source {
	case SourceDevice, SourceStatic:
	default:
		return fmt.Errorf("calibration.source must be %q or %q, got %q", SourceDevice, SourceStatic, c.Calibration.Source)
	}
	if c.Sampling.WarmupIterations < 0 {
		return fmt.Errorf("sampling.warmup_iterations must be >= 0")
	}
	if c.Sampling.Interval <= 0 {
		return fmt.Errorf("sampling.interval must be > 0")
	}
	return nil
}

// Reference returns the calibration reference points.
func (c *Config) Reference() calib.Reference {
	return calib.Reference{
		TempLowC:      c.Calibration.TempLowC,
		TempHighC:     c.Calibration.TempHighC,
		VrefNominalMV: c.ADC.VrefNominalMV,
	}
}

// StaticProvider returns the constants recorded in the calibration section.
func (c *Config) StaticProvider() calib.Static {
	return calib.NewStatic(c.Calibration.TSCalLow, c.Calibration.TSCalHigh, c.Calibration.VrefCal)
}

// Provider returns where the factory constants are read from: the recorded
// values for the static source, device otherwise.
func (c *Config) Provider(device calib.Provider) calib.Provider {
	if c.Calibration.Source == SourceStatic {
		return c.StaticProvider()
	}
	return device
}

// ensureDefaults ensures that all required fields have default values if missing.
// Fields where zero is meaningful (warmup_iterations, average_readings,
// noise_codes, fail_every) are left alone.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.Timeout == 0 {
		c.Serial.Timeout = def.Serial.Timeout
	}

	if c.ADC.Bits == 0 {
		c.ADC.Bits = def.ADC.Bits
	}
	if c.ADC.VrefNominalMV == 0 {
		c.ADC.VrefNominalMV = def.ADC.VrefNominalMV
	}

	if c.Calibration.Source == "" {
		c.Calibration.Source = def.Calibration.Source
	}
	if c.Calibration.TempLowC == 0 && c.Calibration.TempHighC == 0 {
		c.Calibration.TempLowC = def.Calibration.TempLowC
		c.Calibration.TempHighC = def.Calibration.TempHighC
	}

	if c.Sampling.Interval == 0 {
		c.Sampling.Interval = def.Sampling.Interval
	}
	if c.Sampling.HistoryWindow == 0 {
		c.Sampling.HistoryWindow = def.Sampling.HistoryWindow
	}

	if c.Mock.DriftTime == 0 {
		c.Mock.DriftTime = def.Mock.DriftTime
	}
	if c.Mock.TSCalLow == 0 && c.Mock.TSCalHigh == 0 && c.Mock.VrefCal == 0 {
		c.Mock.TSCalLow = def.Mock.TSCalLow
		c.Mock.TSCalHigh = def.Mock.TSCalHigh
		c.Mock.VrefCal = def.Mock.VrefCal
	}

	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}

	if c.Influx.Bucket == "" {
		c.Influx.Bucket = def.Influx.Bucket
	}
	if c.Influx.Device == "" {
		c.Influx.Device = def.Influx.Device
	}
}
