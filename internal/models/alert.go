package models

// AlertType identifies a condition tracked for cooldown and hysteresis.
type AlertType int

const (
	AlertVoltageHigh AlertType = iota
	AlertVoltageLow
	AlertCompressorTemp
	AlertPressureHigh
	AlertPressureLow
	AlertOvercurrent
)

// AlertTypes is the closed set of conditions, in evaluation order.
var AlertTypes = [...]AlertType{
	AlertVoltageHigh,
	AlertVoltageLow,
	AlertCompressorTemp,
	AlertPressureHigh,
	AlertPressureLow,
	AlertOvercurrent,
}

// String returns the human-readable condition name used in notifications.
func (t AlertType) String() string {
	switch t {
	case AlertVoltageHigh:
		return "HIGH VOLTAGE"
	case AlertVoltageLow:
		return "LOW VOLTAGE"
	case AlertCompressorTemp:
		return "COMPRESSOR TEMP"
	case AlertPressureHigh:
		return "HIGH PRESSURE"
	case AlertPressureLow:
		return "LOW PRESSURE"
	case AlertOvercurrent:
		return "OVERCURRENT"
	default:
		return "UNKNOWN"
	}
}

// Key is the snake_case identifier used in metrics labels and event metadata.
func (t AlertType) Key() string {
	switch t {
	case AlertVoltageHigh:
		return "voltage_high"
	case AlertVoltageLow:
		return "voltage_low"
	case AlertCompressorTemp:
		return "compressor_temp"
	case AlertPressureHigh:
		return "pressure_high"
	case AlertPressureLow:
		return "pressure_low"
	case AlertOvercurrent:
		return "overcurrent"
	default:
		return "unknown"
	}
}
