package sensors

import "math"

// Quantity is a kind of physical measurement.
type Quantity string

const (
	QuantityTemperature Quantity = "temperature"
	QuantityVoltage     Quantity = "voltage"
	QuantityCurrent     Quantity = "current"
	QuantityPressure    Quantity = "pressure"
)

// Range is an inclusive physical plausibility window.
type Range struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// Ranges maps each quantity to its plausibility window.
type Ranges map[Quantity]Range

// DefaultRanges are the sensor limits of the stock hardware.
func DefaultRanges() Ranges {
	return Ranges{
		QuantityTemperature: {Min: -40, Max: 125},
		QuantityVoltage:     {Min: 0, Max: 300},
		QuantityCurrent:     {Min: 0, Max: 25},
		QuantityPressure:    {Min: 0, Max: 500},
	}
}

// IsValid reports whether v is finite and inside r.
func IsValid(v float64, r Range) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= r.Min && v <= r.Max
}

// Valid checks v against the window configured for q. Unknown quantities are invalid.
func (rs Ranges) Valid(q Quantity, v float64) bool {
	r, ok := rs[q]
	if !ok {
		return false
	}
	return IsValid(v, r)
}
