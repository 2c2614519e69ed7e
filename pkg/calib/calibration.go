package calib

// Calibration bundles the converter and the model derived from one set of
// constants. It is built once at startup and only read afterwards.
type Calibration struct {
	conv  *Converter
	model Model
}

// New loads the constants from p and derives the model.
func New(p Provider, ref Reference, bits int) (*Calibration, error) {
	c, err := Load(p, ref)
	if err != nil {
		return nil, err
	}
	return FromConstants(c, bits)
}

// FromConstants derives the model from already loaded constants.
func FromConstants(c Constants, bits int) (*Calibration, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	conv, err := NewConverter(bits, c)
	if err != nil {
		return nil, err
	}
	model, err := Derive(conv)
	if err != nil {
		return nil, err
	}
	return &Calibration{conv: conv, model: model}, nil
}

func (c *Calibration) Constants() Constants  { return c.conv.Constants() }
func (c *Calibration) Converter() *Converter { return c.conv }
func (c *Calibration) Model() Model          { return c.model }

// Celsius converts a temperature sensor code measured against ref.
func (c *Calibration) Celsius(raw, ref RawCode) (float64, error) {
	return c.model.Celsius(c.conv, raw, ref)
}

// SupplyMillivolts reconstructs the supply voltage from a reference code.
func (c *Calibration) SupplyMillivolts(ref RawCode) (float64, error) {
	return c.conv.SupplyMillivolts(ref)
}
