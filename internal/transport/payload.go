package transport

import (
	"encoding/json"
	"math"

	"heatpump_monitor/internal/models"
)

// Payload is the wire document published for every snapshot.
// Non-finite sensor values are written as null.
type Payload struct {
	Device    string `json:"device" bson:"device"`
	Timestamp uint64 `json:"timestamp" bson:"timestamp"`
	Version   string `json:"version" bson:"version"`

	Temperature struct {
		Inlet      *float64 `json:"inlet" bson:"inlet"`
		Outlet     *float64 `json:"outlet" bson:"outlet"`
		Ambient    *float64 `json:"ambient" bson:"ambient"`
		Compressor *float64 `json:"compressor" bson:"compressor"`
	} `json:"temperature" bson:"temperature"`

	Electrical struct {
		Voltage *float64 `json:"voltage" bson:"voltage"`
		Current *float64 `json:"current" bson:"current"`
		Power   int64    `json:"power" bson:"power"`
	} `json:"electrical" bson:"electrical"`

	Pressure struct {
		High *int64 `json:"high" bson:"high"`
		Low  *int64 `json:"low" bson:"low"`
	} `json:"pressure" bson:"pressure"`

	Status struct {
		Compressor bool `json:"compressor" bson:"compressor"`
		Fan        bool `json:"fan" bson:"fan"`
		Defrost    bool `json:"defrost" bson:"defrost"`
	} `json:"status" bson:"status"`

	Alerts struct {
		Voltage        int `json:"voltage" bson:"voltage"`
		CompressorTemp int `json:"compressor_temp" bson:"compressor_temp"`
		PressureHigh   int `json:"pressure_high" bson:"pressure_high"`
		PressureLow    int `json:"pressure_low" bson:"pressure_low"`
		Current        int `json:"current" bson:"current"`
	} `json:"alerts" bson:"alerts"`

	Valid map[string]bool `json:"valid" bson:"valid"`
}

// NewPayload renders a snapshot with one decimal for temperatures and voltage,
// two for current, and whole numbers for power and pressure.
func NewPayload(s models.Snapshot, deviceID, version string) Payload {
	var p Payload
	p.Device = deviceID
	p.Timestamp = s.ReadingTime
	p.Version = version

	p.Temperature.Inlet = roundTo(s.TempInlet.Value, 10)
	p.Temperature.Outlet = roundTo(s.TempOutlet.Value, 10)
	p.Temperature.Ambient = roundTo(s.TempAmbient.Value, 10)
	p.Temperature.Compressor = roundTo(s.TempCompressor.Value, 10)

	p.Electrical.Voltage = roundTo(s.Voltage.Value, 10)
	p.Electrical.Current = roundTo(s.Current.Value, 100)
	if finite(s.Power) {
		p.Electrical.Power = int64(math.Round(s.Power))
	}

	p.Pressure.High = roundInt(s.PressureHigh.Value)
	p.Pressure.Low = roundInt(s.PressureLow.Value)

	p.Status.Compressor = s.CompressorRunning
	p.Status.Fan = s.FanRunning
	p.Status.Defrost = s.DefrostActive

	p.Alerts.Voltage = int(s.Voltage.AlertLevel)
	p.Alerts.CompressorTemp = int(s.TempCompressor.AlertLevel)
	p.Alerts.PressureHigh = int(s.PressureHigh.AlertLevel)
	p.Alerts.PressureLow = int(s.PressureLow.AlertLevel)
	p.Alerts.Current = int(s.Current.AlertLevel)

	p.Valid = make(map[string]bool, 8)
	for _, nr := range s.Readings() {
		p.Valid[nr.Name] = nr.Reading.Valid
	}
	return p
}

// Encode returns the JSON form of the snapshot payload.
func Encode(s models.Snapshot, deviceID, version string) ([]byte, error) {
	return json.Marshal(NewPayload(s, deviceID, version))
}

func roundTo(v, scale float64) *float64 {
	if !finite(v) {
		return nil
	}
	r := math.Round(v*scale) / scale
	return &r
}

func roundInt(v float64) *int64 {
	if !finite(v) {
		return nil
	}
	r := int64(math.Round(v))
	return &r
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
