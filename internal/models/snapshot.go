package models

import "math"

// Snapshot is every monitored quantity captured in one sampling pass.
// All readings share ReadingTime. After assembly only AlertLevel fields change.
type Snapshot struct {
	TempInlet      Reading `json:"temp_inlet"`
	TempOutlet     Reading `json:"temp_outlet"`
	TempAmbient    Reading `json:"temp_ambient"`
	TempCompressor Reading `json:"temp_compressor"`

	Voltage Reading `json:"voltage"` // V AC
	Current Reading `json:"current"` // A
	Power   float64 `json:"power"`   // W, zero unless voltage and current are valid

	PressureHigh Reading `json:"pressure_high"` // PSI
	PressureLow  Reading `json:"pressure_low"`  // PSI

	CompressorRunning bool `json:"compressor_running"`
	FanRunning        bool `json:"fan_running"`
	DefrostActive     bool `json:"defrost_active"`

	ReadingTime uint64 `json:"reading_time"` // ms since boot
}

// Readings lists the snapshot's readings keyed by quantity name, in a stable order.
func (s *Snapshot) Readings() []NamedReading {
	return []NamedReading{
		{Name: "temp_inlet", Reading: &s.TempInlet},
		{Name: "temp_outlet", Reading: &s.TempOutlet},
		{Name: "temp_ambient", Reading: &s.TempAmbient},
		{Name: "temp_compressor", Reading: &s.TempCompressor},
		{Name: "voltage", Reading: &s.Voltage},
		{Name: "current", Reading: &s.Current},
		{Name: "pressure_high", Reading: &s.PressureHigh},
		{Name: "pressure_low", Reading: &s.PressureLow},
	}
}

// NamedReading pairs a reading with the quantity it measures.
type NamedReading struct {
	Name    string
	Reading *Reading
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func nan() float64 { return math.NaN() }
